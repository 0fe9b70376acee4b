// Package consistency is the only writer of fields that link records to
// each other: a book's holder, a student's teacher, a teacher's roster, a
// student's borrow history and a loan's status.
//
// The record store offers atomic single-row writes, not transactions that
// span entities. Operations that touch two rows order their writes so the
// first one is a conditional update that decides the race, and undo it with
// a compensating write when a later step fails. Compensation failures are
// logged at error level with the ids needed to repair the records by hand.
//
// Every successful mutation invalidates the cache tags of the records it
// touched before returning. Invalidation never fails the mutation.
package consistency
