// Package store is the record store for the library entities.
//
// It persists books, students, teachers, borrows and accounts with bun on
// SQLite or PostgreSQL. Plain reads, inserts and deletes go through
// go-repository-bun repositories. Every write that crosses an entity
// boundary is a single conditional statement whose affected-row count
// decides the outcome:
//
//   - ReserveBook flips a book to borrowed only while it is available
//   - ReleaseBook makes it available only while the given student holds it
//   - TransitionBorrow moves a loan only from the expected statuses
//   - ConsumeAccountToken verifies an account only with the current token
//
// Rosters and borrow histories live in link tables, so appending to them is
// one row insert. A partial unique index on borrows(book_id) for active
// loans backs the single-active-loan rule at the storage level.
//
// Errors are reported with the recorderr taxonomy: absent records as
// NotFoundError, uniqueness violations as ConflictError and every other
// failure as StoreUnavailableError.
package store
