// Package query serves reads of library records through the cache layer.
//
// Every read returns a fully resolved view: a book with its holder, a
// student with its teacher and borrow history, a teacher with its roster
// or a borrow with its book and student. The whole view is the unit of
// caching. It is stored under a key derived from the entity kind and id
// (or the unique field or collection it was looked up by) and tagged with
// every entity it embeds, so the consistency manager can drop it when any
// of them changes.
//
// A cache miss or cache failure always falls through to the record store.
// Absent records are not cached. Accounts carry credentials and are never
// cached.
package query
