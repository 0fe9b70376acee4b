package consistency

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

func borrowFields(b *model.Borrow) []zap.Field {
	return []zap.Field{
		idField("borrow_id", b.ID),
		idField("book_id", b.BookID),
		idField("student_id", b.StudentID),
	}
}

func (m *Manager) invalidateLoan(ctx context.Context, b *model.Borrow) {
	m.invalidate(ctx,
		ref{model.KindBorrow, b.ID},
		ref{model.KindBook, b.BookID},
		ref{model.KindStudent, b.StudentID})
}

// CreateBorrow opens a pending loan of a book to a student. The book is
// reserved for the student as the first write, so of two concurrent
// requests for the same book exactly one succeeds and the other fails with
// Conflict(ActiveLoan). A zero BorrowDate means now.
func (m *Manager) CreateBorrow(ctx context.Context, in model.BorrowInput) (*model.Borrow, error) {
	student, err := m.records.FindStudent(ctx, in.StudentID)
	if err != nil {
		return nil, err
	}
	book, err := m.records.FindBook(ctx, in.BookID)
	if err != nil {
		return nil, err
	}
	if book.Status != model.BookAvailable {
		return nil, recorderr.Conflict(recorderr.ReasonActiveLoan, model.KindBook, book.ID.String())
	}

	borrowDate := in.BorrowDate
	if borrowDate.IsZero() {
		borrowDate = m.now()
	}

	if err := m.records.ReserveBook(ctx, book.ID, student.ID); err != nil {
		return nil, err
	}

	borrow := &model.Borrow{
		BookID:     book.ID,
		StudentID:  student.ID,
		BorrowDate: borrowDate,
		Status:     model.BorrowPending,
	}
	release := func(ctx context.Context) error {
		_, err := m.records.ReleaseBook(ctx, book.ID, student.ID)
		return err
	}

	if err := m.records.InsertBorrow(ctx, borrow); err != nil {
		m.compensate(ctx, "create borrow", err, release, borrowFields(borrow)...)
		return nil, err
	}

	if err := m.records.AppendHistory(ctx, student.ID, borrow.ID); err != nil {
		m.compensate(ctx, "create borrow", err, func(ctx context.Context) error {
			if _, err := m.records.DeleteBorrow(ctx, borrow.ID); err != nil {
				return err
			}
			return release(ctx)
		}, borrowFields(borrow)...)
		return nil, err
	}

	m.invalidateLoan(ctx, borrow)
	m.logger.Debug("borrow created", borrowFields(borrow)...)
	return borrow, nil
}

// ApproveBorrow moves a pending loan to approved. The book stays with the
// student.
func (m *Manager) ApproveBorrow(ctx context.Context, id uuid.UUID) (*model.Borrow, error) {
	borrow, err := m.transition(ctx, id, model.BorrowApproved)
	if err != nil {
		return nil, err
	}
	m.invalidateLoan(ctx, borrow)
	return borrow, nil
}

// RejectBorrow moves a pending loan to rejected and releases the book.
func (m *Manager) RejectBorrow(ctx context.Context, id uuid.UUID) (*model.Borrow, error) {
	borrow, err := m.transition(ctx, id, model.BorrowRejected)
	if err != nil {
		return nil, err
	}

	released, err := m.records.ReleaseBook(ctx, borrow.BookID, borrow.StudentID)
	if err != nil {
		m.compensate(ctx, "reject borrow", err, func(ctx context.Context) error {
			_, err := m.records.RevertBorrow(ctx, id, model.BorrowRejected, model.BorrowPending)
			return err
		}, borrowFields(borrow)...)
		return nil, err
	}
	if !released {
		m.logger.Warn("rejected loan did not hold its book", borrowFields(borrow)...)
	}

	m.invalidateLoan(ctx, borrow)
	return borrow, nil
}

// transition applies a status change from pending after checking it
// against the borrow state machine.
func (m *Manager) transition(ctx context.Context, id uuid.UUID, to model.BorrowStatus) (*model.Borrow, error) {
	borrow, err := m.records.FindBorrow(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := transitionError(borrow, to); err != nil {
		return nil, err
	}

	changed, err := m.records.TransitionBorrow(ctx, id, []model.BorrowStatus{borrow.Status}, to, nil)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, m.lostTransition(ctx, id)
	}

	borrow.Status = to
	return borrow, nil
}

func transitionError(b *model.Borrow, to model.BorrowStatus) error {
	if b.Returned() {
		return recorderr.Conflict(recorderr.ReasonAlreadyReturned, model.KindBorrow, b.ID.String())
	}
	if !b.Status.CanTransition(to) {
		return recorderr.Conflict(recorderr.ReasonInvalidTransition, model.KindBorrow, b.ID.String())
	}
	return nil
}

// lostTransition explains why a conditional borrow update matched no row.
func (m *Manager) lostTransition(ctx context.Context, id uuid.UUID) error {
	current, err := m.records.FindBorrow(ctx, id)
	if err != nil {
		return err
	}
	if current.Returned() {
		return recorderr.Conflict(recorderr.ReasonAlreadyReturned, model.KindBorrow, id.String())
	}
	return recorderr.Conflict(recorderr.ReasonInvalidTransition, model.KindBorrow, id.String())
}

// ReturnBorrow closes an open loan: the borrow becomes approved with
// returnDate set to now and the book becomes available with no holder.
// A second return fails with Conflict(AlreadyReturned).
func (m *Manager) ReturnBorrow(ctx context.Context, id uuid.UUID) (*model.Borrow, error) {
	borrow, err := m.records.FindBorrow(ctx, id)
	if err != nil {
		return nil, err
	}
	if borrow.Returned() {
		return nil, recorderr.Conflict(recorderr.ReasonAlreadyReturned, model.KindBorrow, id.String())
	}
	if !borrow.Active() {
		return nil, recorderr.Conflict(recorderr.ReasonInvalidTransition, model.KindBorrow, id.String())
	}

	previous := borrow.Status
	returnDate := m.now().UTC()

	// the conditional update is the serialisation point for double returns
	changed, err := m.records.TransitionBorrow(ctx, id, model.ActiveBorrowStatuses, model.BorrowApproved, &returnDate)
	if err != nil {
		return nil, err
	}
	if !changed {
		return nil, m.lostTransition(ctx, id)
	}

	released, err := m.records.ReleaseBook(ctx, borrow.BookID, borrow.StudentID)
	if err != nil {
		m.compensate(ctx, "return borrow", err, func(ctx context.Context) error {
			_, err := m.records.RevertBorrow(ctx, id, model.BorrowApproved, previous)
			return err
		}, borrowFields(borrow)...)
		return nil, err
	}
	if !released {
		m.logger.Warn("returned loan did not hold its book", borrowFields(borrow)...)
	}

	borrow.Status = model.BorrowApproved
	borrow.ReturnDate = &returnDate
	m.invalidateLoan(ctx, borrow)
	m.logger.Debug("borrow returned", borrowFields(borrow)...)
	return borrow, nil
}
