package consistency

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

func isNotFound(err error) bool {
	return errors.Is(err, recorderr.ErrNotFound)
}

// emailTaken fails with Conflict(DuplicateEmail) when find resolves email.
func emailTaken[T any](ctx context.Context, kind model.Kind, email string, find func(context.Context, string) (T, error)) error {
	_, err := find(ctx, email)
	switch {
	case err == nil:
		return recorderr.Conflict(recorderr.ReasonDuplicateEmail, kind, email)
	case isNotFound(err):
		return nil
	default:
		return err
	}
}

func (m *Manager) checkAccount(ctx context.Context, accountID *uuid.UUID) error {
	if accountID == nil {
		return nil
	}
	if _, err := m.records.FindAccount(ctx, *accountID); err != nil {
		if isNotFound(err) {
			return recorderr.InvalidReference(model.KindAccount, *accountID)
		}
		return err
	}
	return nil
}

// CreateTeacher registers a teacher with an empty roster.
func (m *Manager) CreateTeacher(ctx context.Context, in model.TeacherInput) (*model.Teacher, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, recorderr.InvalidInput(model.KindTeacher, err)
	}
	if err := emailTaken(ctx, model.KindTeacher, in.Email, m.records.FindTeacherByEmail); err != nil {
		return nil, err
	}
	if err := m.checkAccount(ctx, in.AccountID); err != nil {
		return nil, err
	}

	teacher := &model.Teacher{
		AccountID: in.AccountID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Students:  []uuid.UUID{},
	}
	if err := m.records.InsertTeacher(ctx, teacher); err != nil {
		return nil, err
	}

	m.invalidate(ctx, ref{model.KindTeacher, teacher.ID})
	m.logger.Debug("teacher created", idField("teacher_id", teacher.ID))
	return teacher, nil
}

// CreateStudent registers a student under the teacher with
// in.TeacherEmail and appends the student to that teacher's roster. If
// the roster append fails the student is deleted again.
func (m *Manager) CreateStudent(ctx context.Context, in model.StudentInput) (*model.Student, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, recorderr.InvalidInput(model.KindStudent, err)
	}

	teacher, err := m.records.FindTeacherByEmail(ctx, in.TeacherEmail)
	if err != nil {
		return nil, err
	}
	if err := emailTaken(ctx, model.KindStudent, in.Email, m.records.FindStudentByEmail); err != nil {
		return nil, err
	}
	if err := m.checkAccount(ctx, in.AccountID); err != nil {
		return nil, err
	}

	student := &model.Student{
		AccountID:     in.AccountID,
		FirstName:     in.FirstName,
		LastName:      in.LastName,
		Email:         in.Email,
		TeacherID:     teacher.ID,
		BorrowedBooks: []uuid.UUID{},
	}
	if err := m.records.InsertStudent(ctx, student); err != nil {
		return nil, err
	}

	if err := m.records.AppendRoster(ctx, teacher.ID, student.ID); err != nil {
		m.compensate(ctx, "create student", err, func(ctx context.Context) error {
			_, err := m.records.DeleteStudent(ctx, student.ID)
			return err
		}, idField("student_id", student.ID), idField("teacher_id", teacher.ID))
		return nil, err
	}

	m.invalidate(ctx, ref{model.KindStudent, student.ID}, ref{model.KindTeacher, teacher.ID})
	m.logger.Debug("student created",
		idField("student_id", student.ID),
		idField("teacher_id", teacher.ID))
	return student, nil
}

// UpdateTeacher applies a typed patch to the teacher's own fields.
func (m *Manager) UpdateTeacher(ctx context.Context, id uuid.UUID, patch model.TeacherPatch) (*model.Teacher, error) {
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, recorderr.InvalidInput(model.KindTeacher, err)
	}
	if patch.Email != nil {
		other, err := m.records.FindTeacherByEmail(ctx, *patch.Email)
		if err == nil && other.ID != id {
			return nil, recorderr.Conflict(recorderr.ReasonDuplicateEmail, model.KindTeacher, *patch.Email)
		}
		if err != nil && !isNotFound(err) {
			return nil, err
		}
	}

	teacher, err := m.records.UpdateTeacher(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	m.invalidate(ctx, ref{model.KindTeacher, id})
	return teacher, nil
}

// UpdateStudent applies a typed patch to the student's own fields. The
// teacher is changed with MoveStudent.
func (m *Manager) UpdateStudent(ctx context.Context, id uuid.UUID, patch model.StudentPatch) (*model.Student, error) {
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, recorderr.InvalidInput(model.KindStudent, err)
	}
	if patch.Email != nil {
		other, err := m.records.FindStudentByEmail(ctx, *patch.Email)
		if err == nil && other.ID != id {
			return nil, recorderr.Conflict(recorderr.ReasonDuplicateEmail, model.KindStudent, *patch.Email)
		}
		if err != nil && !isNotFound(err) {
			return nil, err
		}
	}

	student, err := m.records.UpdateStudent(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	m.invalidate(ctx, ref{model.KindStudent, id})
	return student, nil
}

// MoveStudent reassigns a student to the teacher with teacherEmail and
// moves the roster entry with it. Moving to the current teacher is a
// no-op.
func (m *Manager) MoveStudent(ctx context.Context, studentID uuid.UUID, teacherEmail string) (*model.Student, error) {
	student, err := m.records.FindStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	to, err := m.records.FindTeacherByEmail(ctx, teacherEmail)
	if err != nil {
		return nil, err
	}
	from := student.TeacherID
	if to.ID == from {
		return student, nil
	}

	fields := []zap.Field{
		idField("student_id", studentID),
		idField("from_teacher_id", from),
		idField("to_teacher_id", to.ID),
	}

	if _, err := m.records.RemoveRoster(ctx, from, studentID); err != nil {
		return nil, err
	}

	changed, err := m.records.SetStudentTeacher(ctx, studentID, from, to.ID)
	if err != nil {
		m.compensate(ctx, "move student", err, func(ctx context.Context) error {
			return m.records.AppendRoster(ctx, from, studentID)
		}, fields...)
		return nil, err
	}
	if !changed {
		// someone else moved or deleted the student; their write owns the
		// old roster entry now
		return nil, recorderr.Conflict(recorderr.ReasonStale, model.KindStudent, studentID.String())
	}

	if err := m.records.AppendRoster(ctx, to.ID, studentID); err != nil {
		m.compensate(ctx, "move student", err, func(ctx context.Context) error {
			if _, err := m.records.SetStudentTeacher(ctx, studentID, to.ID, from); err != nil {
				return err
			}
			return m.records.AppendRoster(ctx, from, studentID)
		}, fields...)
		return nil, err
	}

	m.invalidate(ctx,
		ref{model.KindStudent, studentID},
		ref{model.KindTeacher, from},
		ref{model.KindTeacher, to.ID})
	m.logger.Debug("student moved", fields...)

	student.TeacherID = to.ID
	return student, nil
}
