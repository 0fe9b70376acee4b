package store

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

// StudentFilter narrows ListStudents. Zero fields match everything.
type StudentFilter struct {
	IDs       []uuid.UUID
	TeacherID *uuid.UUID
	AccountID *uuid.UUID
}

func (f StudentFilter) criteria() []repository.SelectCriteria {
	var c []repository.SelectCriteria
	if f.IDs != nil {
		c = append(c, whereIn("id", f.IDs))
	}
	if f.TeacherID != nil {
		c = append(c, where("teacher_id", *f.TeacherID))
	}
	if f.AccountID != nil {
		c = append(c, where("account_id", *f.AccountID))
	}
	return append(c, orderBy("created_at DESC"), orderBy("id ASC"))
}

// FindStudent returns the student with id, borrow history included.
func (s *Store) FindStudent(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	return s.findStudent(ctx, recorderr.NotFound(model.KindStudent, id), where("id", id))
}

// FindStudentByEmail returns the student with the normalised email.
func (s *Store) FindStudentByEmail(ctx context.Context, email string) (*model.Student, error) {
	email = model.Normalize(email)
	return s.findStudent(ctx, &recorderr.NotFoundError{Kind: model.KindStudent, ID: "email:" + email}, where("email", email))
}

func (s *Store) findStudent(ctx context.Context, notFound error, criteria ...repository.SelectCriteria) (*model.Student, error) {
	records, _, err := s.students.List(ctx, append(criteria, limit(1))...)
	if err != nil {
		return nil, recorderr.Unavailable("find student", err)
	}
	student, ok := firstOf(records)
	if !ok {
		return nil, notFound
	}
	if err := s.attachHistories(ctx, student); err != nil {
		return nil, err
	}
	return student, nil
}

// ListStudents returns the students matching f, newest first.
func (s *Store) ListStudents(ctx context.Context, f StudentFilter) ([]*model.Student, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []*model.Student{}, nil
	}
	records, _, err := s.students.List(ctx, f.criteria()...)
	if err != nil {
		return nil, recorderr.Unavailable("list students", err)
	}
	if err := s.attachHistories(ctx, records...); err != nil {
		return nil, err
	}
	return records, nil
}

// InsertStudent persists a new student without roster or history links.
func (s *Store) InsertStudent(ctx context.Context, st *model.Student) error {
	if st.ID == uuid.Nil {
		st.ID = uuid.New()
	}
	now := s.timestamp()
	st.CreatedAt, st.UpdatedAt = now, now
	if st.BorrowedBooks == nil {
		st.BorrowedBooks = []uuid.UUID{}
	}

	if _, err := s.students.Create(ctx, st); err != nil {
		if violatesIndex(err, "email") {
			return recorderr.Conflict(recorderr.ReasonDuplicateEmail, model.KindStudent, st.Email)
		}
		return recorderr.Unavailable("insert student", err)
	}
	return nil
}

// UpdateStudent applies patch to the student with id.
func (s *Store) UpdateStudent(ctx context.Context, id uuid.UUID, patch model.StudentPatch) (*model.Student, error) {
	student, err := s.FindStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	cols := patch.Apply(student)
	if len(cols) == 0 {
		return student, nil
	}
	student.UpdatedAt = s.timestamp()

	res, err := s.db.NewUpdate().
		Model(student).
		Column(append(cols, "updated_at")...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if violatesIndex(err, "email") {
			return nil, recorderr.Conflict(recorderr.ReasonDuplicateEmail, model.KindStudent, id.String())
		}
		return nil, recorderr.Unavailable("update student", err)
	}
	if !affected(res) {
		return nil, recorderr.NotFound(model.KindStudent, id)
	}
	return student, nil
}

// SetStudentTeacher moves the student from teacher from to teacher to,
// only if from is still the current teacher. It reports whether the
// student changed.
func (s *Store) SetStudentTeacher(ctx context.Context, id, from, to uuid.UUID) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*model.Student)(nil)).
		Set("teacher_id = ?", to).
		Set("updated_at = ?", s.timestamp()).
		Where("id = ?", id).
		Where("teacher_id = ?", from).
		Exec(ctx)
	if err != nil {
		return false, recorderr.Unavailable("set student teacher", err)
	}
	return affected(res), nil
}

// DeleteStudent removes the student with id together with its history
// links and returns the removed record. Borrow records are kept.
func (s *Store) DeleteStudent(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	student, err := s.FindStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.students.DeleteTx(ctx, tx, student); err != nil {
			return err
		}
		_, err := tx.NewDelete().
			Model((*historyLink)(nil)).
			Where("student_id = ?", id).
			Exec(ctx)
		return err
	})
	if err != nil {
		return nil, recorderr.Unavailable("delete student", err)
	}
	return student, nil
}
