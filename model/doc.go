// Package model defines the library records (books, students, teachers,
// borrows and accounts), their typed partial updates and the borrow
// lifecycle rules.
//
// Records are plain structs mapped with bun tags. Cross-entity fields
// (a book's status and holder, a student's teacher and borrow history, a
// teacher's roster, a borrow's status and return date) are never part of a
// patch: they are owned by the consistency package and written through the
// store's conditional operations only.
package model
