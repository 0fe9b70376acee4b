package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BorrowStatus is the lifecycle state of a loan.
//
//	pending -> approved
//	pending -> rejected
//
// approved and rejected are terminal. A returned loan is approved with a
// non-nil ReturnDate.
type BorrowStatus string

const (
	BorrowPending  BorrowStatus = "pending"
	BorrowApproved BorrowStatus = "approved"
	BorrowRejected BorrowStatus = "rejected"
)

var borrowTransitions = map[BorrowStatus][]BorrowStatus{
	BorrowPending: {BorrowApproved, BorrowRejected},
}

// Valid reports whether s is a known status.
func (s BorrowStatus) Valid() bool {
	switch s {
	case BorrowPending, BorrowApproved, BorrowRejected:
		return true
	}
	return false
}

// CanTransition reports whether a loan in state s may move to state to.
func (s BorrowStatus) CanTransition(to BorrowStatus) bool {
	for _, next := range borrowTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no status transition leaves s.
func (s BorrowStatus) Terminal() bool {
	return len(borrowTransitions[s]) == 0
}

// ActiveBorrowStatuses are the statuses that hold a book while unreturned.
var ActiveBorrowStatuses = []BorrowStatus{BorrowPending, BorrowApproved}

// Borrow records one loan of a book to a student.
type Borrow struct {
	bun.BaseModel `bun:"table:borrows,alias:br" json:"-"`

	ID         uuid.UUID    `bun:"id,pk" json:"id"`
	BookID     uuid.UUID    `bun:"book_id,notnull" json:"bookId"`
	StudentID  uuid.UUID    `bun:"student_id,notnull" json:"studentId"`
	BorrowDate time.Time    `bun:"borrow_date,notnull" json:"borrowDate"`
	ReturnDate *time.Time   `bun:"return_date" json:"returnDate"`
	Status     BorrowStatus `bun:"status,notnull" json:"status"`
	CreatedAt  time.Time    `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt  time.Time    `bun:"updated_at,notnull" json:"updatedAt"`
}

// Active reports whether the loan still holds its book.
func (b *Borrow) Active() bool {
	return b.ReturnDate == nil && (b.Status == BorrowPending || b.Status == BorrowApproved)
}

// Returned reports whether the loan has been closed by a return.
func (b *Borrow) Returned() bool {
	return b.Status == BorrowApproved && b.ReturnDate != nil
}

// BorrowInput requests a loan of BookID to StudentID.
type BorrowInput struct {
	StudentID  uuid.UUID
	BookID     uuid.UUID
	BorrowDate time.Time
}
