package store

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

// TeacherFilter narrows ListTeachers. Zero fields match everything.
type TeacherFilter struct {
	IDs       []uuid.UUID
	AccountID *uuid.UUID
}

func (f TeacherFilter) criteria() []repository.SelectCriteria {
	var c []repository.SelectCriteria
	if f.IDs != nil {
		c = append(c, whereIn("id", f.IDs))
	}
	if f.AccountID != nil {
		c = append(c, where("account_id", *f.AccountID))
	}
	return append(c, orderBy("created_at DESC"), orderBy("id ASC"))
}

// FindTeacher returns the teacher with id, roster included.
func (s *Store) FindTeacher(ctx context.Context, id uuid.UUID) (*model.Teacher, error) {
	return s.findTeacher(ctx, recorderr.NotFound(model.KindTeacher, id), where("id", id))
}

// FindTeacherByEmail returns the teacher with the normalised email.
func (s *Store) FindTeacherByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	email = model.Normalize(email)
	return s.findTeacher(ctx, &recorderr.NotFoundError{Kind: model.KindTeacher, ID: "email:" + email}, where("email", email))
}

func (s *Store) findTeacher(ctx context.Context, notFound error, criteria ...repository.SelectCriteria) (*model.Teacher, error) {
	records, _, err := s.teachers.List(ctx, append(criteria, limit(1))...)
	if err != nil {
		return nil, recorderr.Unavailable("find teacher", err)
	}
	teacher, ok := firstOf(records)
	if !ok {
		return nil, notFound
	}
	if err := s.attachRosters(ctx, teacher); err != nil {
		return nil, err
	}
	return teacher, nil
}

// ListTeachers returns the teachers matching f, newest first.
func (s *Store) ListTeachers(ctx context.Context, f TeacherFilter) ([]*model.Teacher, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []*model.Teacher{}, nil
	}
	records, _, err := s.teachers.List(ctx, f.criteria()...)
	if err != nil {
		return nil, recorderr.Unavailable("list teachers", err)
	}
	if err := s.attachRosters(ctx, records...); err != nil {
		return nil, err
	}
	return records, nil
}

// InsertTeacher persists a new teacher with an empty roster.
func (s *Store) InsertTeacher(ctx context.Context, t *model.Teacher) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := s.timestamp()
	t.CreatedAt, t.UpdatedAt = now, now
	if t.Students == nil {
		t.Students = []uuid.UUID{}
	}

	if _, err := s.teachers.Create(ctx, t); err != nil {
		if violatesIndex(err, "email") {
			return recorderr.Conflict(recorderr.ReasonDuplicateEmail, model.KindTeacher, t.Email)
		}
		return recorderr.Unavailable("insert teacher", err)
	}
	return nil
}

// UpdateTeacher applies patch to the teacher with id.
func (s *Store) UpdateTeacher(ctx context.Context, id uuid.UUID, patch model.TeacherPatch) (*model.Teacher, error) {
	teacher, err := s.FindTeacher(ctx, id)
	if err != nil {
		return nil, err
	}

	cols := patch.Apply(teacher)
	if len(cols) == 0 {
		return teacher, nil
	}
	teacher.UpdatedAt = s.timestamp()

	res, err := s.db.NewUpdate().
		Model(teacher).
		Column(append(cols, "updated_at")...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if violatesIndex(err, "email") {
			return nil, recorderr.Conflict(recorderr.ReasonDuplicateEmail, model.KindTeacher, id.String())
		}
		return nil, recorderr.Unavailable("update teacher", err)
	}
	if !affected(res) {
		return nil, recorderr.NotFound(model.KindTeacher, id)
	}
	return teacher, nil
}

// DeleteTeacher removes the teacher with id together with its roster
// links and returns the removed record.
func (s *Store) DeleteTeacher(ctx context.Context, id uuid.UUID) (*model.Teacher, error) {
	teacher, err := s.FindTeacher(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.db.NewDelete().
		Model((*model.Teacher)(nil)).
		Where("id = ?", id).
		Where("NOT EXISTS (?)", s.db.NewSelect().
			Model((*model.Student)(nil)).
			ColumnExpr("1").
			Where("s.teacher_id = ?", id)).
		Where("NOT EXISTS (?)", s.db.NewSelect().
			Model((*rosterLink)(nil)).
			ColumnExpr("1").
			Where("ts.teacher_id = ?", id)).
		Exec(ctx)
	if err != nil {
		return nil, recorderr.Unavailable("delete teacher", err)
	}
	if affected(res) {
		return teacher, nil
	}

	if _, err := s.FindTeacher(ctx, id); err != nil {
		return nil, err
	}
	return nil, recorderr.Conflict(recorderr.ReasonHasReferences, model.KindTeacher, id.String())
}
