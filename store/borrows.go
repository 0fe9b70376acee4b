package store

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

const activeBorrowIndex = "borrows_active_book_idx"

// BorrowFilter narrows ListBorrows. Zero fields match everything.
type BorrowFilter struct {
	IDs        []uuid.UUID
	StudentID  *uuid.UUID
	BookID     *uuid.UUID
	Status     model.BorrowStatus
	ActiveOnly bool
}

func (f BorrowFilter) criteria() []repository.SelectCriteria {
	var c []repository.SelectCriteria
	if f.IDs != nil {
		c = append(c, whereIn("id", f.IDs))
	}
	if f.StudentID != nil {
		c = append(c, where("student_id", *f.StudentID))
	}
	if f.BookID != nil {
		c = append(c, where("book_id", *f.BookID))
	}
	if f.Status != "" {
		c = append(c, where("status", f.Status))
	}
	if f.ActiveOnly {
		c = append(c, activeBorrows)
	}
	return append(c, orderBy("borrow_date DESC"), orderBy("id ASC"))
}

func activeBorrows(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Where("?TableAlias.return_date IS NULL").
		Where("?TableAlias.status IN (?)", bun.In(model.ActiveBorrowStatuses))
}

// FindBorrow returns the borrow with id.
func (s *Store) FindBorrow(ctx context.Context, id uuid.UUID) (*model.Borrow, error) {
	records, _, err := s.borrows.List(ctx, where("id", id), limit(1))
	if err != nil {
		return nil, recorderr.Unavailable("find borrow", err)
	}
	borrow, ok := firstOf(records)
	if !ok {
		return nil, recorderr.NotFound(model.KindBorrow, id)
	}
	return borrow, nil
}

// ListBorrows returns the borrows matching f, most recent borrow date first.
func (s *Store) ListBorrows(ctx context.Context, f BorrowFilter) ([]*model.Borrow, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []*model.Borrow{}, nil
	}
	records, _, err := s.borrows.List(ctx, f.criteria()...)
	if err != nil {
		return nil, recorderr.Unavailable("list borrows", err)
	}
	return records, nil
}

// InsertBorrow persists a new loan. A second active loan for the same book
// is rejected with Conflict(ActiveLoan).
func (s *Store) InsertBorrow(ctx context.Context, b *model.Borrow) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = model.BorrowPending
	}
	now := s.timestamp()
	b.CreatedAt, b.UpdatedAt = now, now
	b.BorrowDate = b.BorrowDate.UTC()

	if _, err := s.borrows.Create(ctx, b); err != nil {
		if violatesIndex(err, activeBorrowIndex, "book_id") {
			return recorderr.Conflict(recorderr.ReasonActiveLoan, model.KindBook, b.BookID.String())
		}
		return recorderr.Unavailable("insert borrow", err)
	}
	return nil
}

// TransitionBorrow moves the borrow to status to if it is currently in
// one of from and still open. A non-nil returnDate closes the loan. It
// reports whether the row changed.
func (s *Store) TransitionBorrow(ctx context.Context, id uuid.UUID, from []model.BorrowStatus, to model.BorrowStatus, returnDate *time.Time) (bool, error) {
	q := s.db.NewUpdate().
		Model((*model.Borrow)(nil)).
		Set("status = ?", to).
		Set("updated_at = ?", s.timestamp()).
		Where("id = ?", id).
		Where("status IN (?)", bun.In(from)).
		Where("return_date IS NULL")
	if returnDate != nil {
		q = q.Set("return_date = ?", returnDate.UTC())
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, recorderr.Unavailable("transition borrow", err)
	}
	return affected(res), nil
}

// RevertBorrow restores a borrow to previous, clearing its return date,
// when it is still in current. It undoes a TransitionBorrow whose follow
// up write failed.
func (s *Store) RevertBorrow(ctx context.Context, id uuid.UUID, current, previous model.BorrowStatus) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*model.Borrow)(nil)).
		Set("status = ?", previous).
		Set("return_date = NULL").
		Set("updated_at = ?", s.timestamp()).
		Where("id = ?", id).
		Where("status = ?", current).
		Exec(ctx)
	if err != nil {
		return false, recorderr.Unavailable("revert borrow", err)
	}
	return affected(res), nil
}

// DeleteBorrow removes the borrow with id and its history link, and
// returns the removed record.
func (s *Store) DeleteBorrow(ctx context.Context, id uuid.UUID) (*model.Borrow, error) {
	borrow, err := s.FindBorrow(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.borrows.DeleteTx(ctx, tx, borrow); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*historyLink)(nil)).
			Where("borrow_id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, recorderr.Unavailable("delete borrow", err)
	}
	return borrow, nil
}
