package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

// rosterLink is one entry of a teacher's roster.
type rosterLink struct {
	bun.BaseModel `bun:"table:teacher_students,alias:ts"`

	TeacherID uuid.UUID `bun:"teacher_id,pk"`
	StudentID uuid.UUID `bun:"student_id,pk"`
	AddedAt   time.Time `bun:"added_at,notnull"`
}

// historyLink is one entry of a student's borrow history.
type historyLink struct {
	bun.BaseModel `bun:"table:student_borrows,alias:sb"`

	StudentID uuid.UUID `bun:"student_id,pk"`
	BorrowID  uuid.UUID `bun:"borrow_id,pk"`
	AddedAt   time.Time `bun:"added_at,notnull"`
}

// AppendRoster adds studentID to the teacher's roster. Appending an
// existing entry is a no-op. The entry is only written while the teacher
// exists, so a roster never points at a deleted teacher.
func (s *Store) AppendRoster(ctx context.Context, teacherID, studentID uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO teacher_students (teacher_id, student_id, added_at)
		SELECT ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM teachers WHERE id = ?)
		ON CONFLICT DO NOTHING`,
		teacherID, studentID, s.timestamp(), teacherID)
	if err != nil {
		return recorderr.Unavailable("append roster", err)
	}
	if affected(res) {
		return nil
	}

	exists, err := s.db.NewSelect().
		Model((*model.Teacher)(nil)).
		Where("id = ?", teacherID).
		Exists(ctx)
	if err != nil {
		return recorderr.Unavailable("append roster", err)
	}
	if !exists {
		return recorderr.NotFound(model.KindTeacher, teacherID)
	}
	return nil
}

// RemoveRoster drops studentID from the teacher's roster and reports
// whether an entry was removed.
func (s *Store) RemoveRoster(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*rosterLink)(nil)).
		Where("teacher_id = ?", teacherID).
		Where("student_id = ?", studentID).
		Exec(ctx)
	if err != nil {
		return false, recorderr.Unavailable("remove roster", err)
	}
	return affected(res), nil
}

// AppendHistory adds borrowID to the student's borrow history. Appending
// an existing entry is a no-op.
func (s *Store) AppendHistory(ctx context.Context, studentID, borrowID uuid.UUID) error {
	link := &historyLink{StudentID: studentID, BorrowID: borrowID, AddedAt: s.timestamp()}
	if _, err := s.db.NewInsert().Model(link).On("CONFLICT DO NOTHING").Exec(ctx); err != nil {
		return recorderr.Unavailable("append history", err)
	}
	return nil
}

// RemoveHistory drops borrowID from the student's history and reports
// whether an entry was removed.
func (s *Store) RemoveHistory(ctx context.Context, studentID, borrowID uuid.UUID) (bool, error) {
	res, err := s.db.NewDelete().
		Model((*historyLink)(nil)).
		Where("student_id = ?", studentID).
		Where("borrow_id = ?", borrowID).
		Exec(ctx)
	if err != nil {
		return false, recorderr.Unavailable("remove history", err)
	}
	return affected(res), nil
}

func (s *Store) attachRosters(ctx context.Context, teachers ...*model.Teacher) error {
	if len(teachers) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(teachers))
	for i, t := range teachers {
		ids[i] = t.ID
	}

	var links []rosterLink
	err := s.db.NewSelect().
		Model(&links).
		Where("teacher_id IN (?)", bun.In(ids)).
		Order("added_at ASC", "student_id ASC").
		Scan(ctx)
	if err != nil {
		return recorderr.Unavailable("load rosters", err)
	}

	byTeacher := make(map[uuid.UUID][]uuid.UUID, len(teachers))
	for _, l := range links {
		byTeacher[l.TeacherID] = append(byTeacher[l.TeacherID], l.StudentID)
	}
	for _, t := range teachers {
		t.Students = byTeacher[t.ID]
		if t.Students == nil {
			t.Students = []uuid.UUID{}
		}
	}
	return nil
}

func (s *Store) attachHistories(ctx context.Context, students ...*model.Student) error {
	if len(students) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(students))
	for i, st := range students {
		ids[i] = st.ID
	}

	var links []historyLink
	err := s.db.NewSelect().
		Model(&links).
		Where("student_id IN (?)", bun.In(ids)).
		Order("added_at ASC", "borrow_id ASC").
		Scan(ctx)
	if err != nil {
		return recorderr.Unavailable("load histories", err)
	}

	byStudent := make(map[uuid.UUID][]uuid.UUID, len(students))
	for _, l := range links {
		byStudent[l.StudentID] = append(byStudent[l.StudentID], l.BorrowID)
	}
	for _, st := range students {
		st.BorrowedBooks = byStudent[st.ID]
		if st.BorrowedBooks == nil {
			st.BorrowedBooks = []uuid.UUID{}
		}
	}
	return nil
}
