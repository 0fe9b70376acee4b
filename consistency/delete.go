package consistency

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
	"github.com/goliatone/go-library-records/store"
)

// DeleteEntity removes the record of kind with id. Deletion is refused
// while live references point at the record:
//
//   - a book on loan, or a student with an open loan: Conflict(ActiveLoan)
//   - an open borrow: Conflict(ActiveLoan)
//   - a teacher with students, or an account owning a profile:
//     Conflict(HasReferences)
//
// A deleted student leaves its teacher's roster; a deleted borrow leaves
// its student's history. Closed borrows of a deleted book or student are
// kept as history.
func (m *Manager) DeleteEntity(ctx context.Context, kind model.Kind, id uuid.UUID) error {
	parsed, err := model.ParseKind(string(kind))
	if err != nil {
		return recorderr.InvalidInput(kind, err)
	}
	switch parsed {
	case model.KindBook:
		return m.deleteBook(ctx, id)
	case model.KindStudent:
		return m.deleteStudent(ctx, id)
	case model.KindTeacher:
		return m.deleteTeacher(ctx, id)
	case model.KindBorrow:
		return m.deleteBorrow(ctx, id)
	case model.KindAccount:
		return m.deleteAccount(ctx, id)
	}
	return recorderr.InvalidInput(kind, fmt.Errorf("unsupported kind %q", kind))
}

func (m *Manager) deleteBook(ctx context.Context, id uuid.UUID) error {
	// the store only deletes an available book
	if _, err := m.records.DeleteBook(ctx, id); err != nil {
		return err
	}
	m.invalidate(ctx, ref{model.KindBook, id})
	m.logger.Debug("book deleted", idField("book_id", id))
	return nil
}

func (m *Manager) deleteStudent(ctx context.Context, id uuid.UUID) error {
	student, err := m.records.FindStudent(ctx, id)
	if err != nil {
		return err
	}
	open, err := m.records.ListBorrows(ctx, store.BorrowFilter{StudentID: &id, ActiveOnly: true})
	if err != nil {
		return err
	}
	if len(open) > 0 {
		return recorderr.Conflict(recorderr.ReasonActiveLoan, model.KindStudent, id.String())
	}

	if _, err := m.records.RemoveRoster(ctx, student.TeacherID, id); err != nil {
		return err
	}
	if _, err := m.records.DeleteStudent(ctx, id); err != nil {
		m.compensate(ctx, "delete student", err, func(ctx context.Context) error {
			return m.records.AppendRoster(ctx, student.TeacherID, id)
		}, idField("student_id", id), idField("teacher_id", student.TeacherID))
		return err
	}

	m.invalidate(ctx, ref{model.KindStudent, id}, ref{model.KindTeacher, student.TeacherID})
	m.logger.Debug("student deleted", idField("student_id", id))
	return nil
}

func (m *Manager) deleteTeacher(ctx context.Context, id uuid.UUID) error {
	// refused by the store while any student row or roster entry names the teacher
	if _, err := m.records.DeleteTeacher(ctx, id); err != nil {
		return err
	}
	m.invalidate(ctx, ref{model.KindTeacher, id})
	m.logger.Debug("teacher deleted", idField("teacher_id", id))
	return nil
}

func (m *Manager) deleteBorrow(ctx context.Context, id uuid.UUID) error {
	borrow, err := m.records.FindBorrow(ctx, id)
	if err != nil {
		return err
	}
	if borrow.Active() {
		return recorderr.Conflict(recorderr.ReasonActiveLoan, model.KindBorrow, id.String())
	}

	// the history link goes in the same transaction
	if _, err := m.records.DeleteBorrow(ctx, id); err != nil {
		return err
	}
	m.invalidateLoan(ctx, borrow)
	m.logger.Debug("borrow deleted", borrowFields(borrow)...)
	return nil
}

func (m *Manager) deleteAccount(ctx context.Context, id uuid.UUID) error {
	if _, err := m.records.FindAccount(ctx, id); err != nil {
		return err
	}
	students, err := m.records.ListStudents(ctx, store.StudentFilter{AccountID: &id})
	if err != nil {
		return err
	}
	teachers, err := m.records.ListTeachers(ctx, store.TeacherFilter{AccountID: &id})
	if err != nil {
		return err
	}
	if len(students) > 0 || len(teachers) > 0 {
		return recorderr.Conflict(recorderr.ReasonHasReferences, model.KindAccount, id.String())
	}

	if _, err := m.records.DeleteAccount(ctx, id); err != nil {
		return err
	}
	m.logger.Debug("account deleted", idField("account_id", id))
	return nil
}
