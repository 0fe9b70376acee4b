package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/store"
)

// Student returns the student with id.
func (f *Facade) Student(ctx context.Context, id uuid.UUID) (*StudentView, error) {
	return one[StudentView](ctx, f, cache.EntityKey(model.KindStudent, id), StudentView.Tags,
		func(ctx context.Context) (StudentView, error) {
			student, err := f.reader.FindStudent(ctx, id)
			if err != nil {
				return StudentView{}, err
			}
			return f.studentView(ctx, student)
		})
}

// StudentByEmail returns the student with email.
func (f *Facade) StudentByEmail(ctx context.Context, email string) (*StudentView, error) {
	return one[StudentView](ctx, f, cache.LookupKey(model.KindStudent, "email", email), StudentView.Tags,
		func(ctx context.Context) (StudentView, error) {
			student, err := f.reader.FindStudentByEmail(ctx, email)
			if err != nil {
				return StudentView{}, err
			}
			return f.studentView(ctx, student)
		})
}

// Students lists every student, newest first.
func (f *Facade) Students(ctx context.Context) ([]StudentView, error) {
	return cache.GetOrFetch[[]StudentView](ctx, f.cache, cache.CollectionKey(model.KindStudent),
		listTags[StudentView](model.KindStudent),
		func(ctx context.Context) ([]StudentView, error) {
			students, err := f.reader.ListStudents(ctx, store.StudentFilter{})
			if err != nil {
				return nil, err
			}
			return f.studentViews(ctx, students)
		})
}

// TeacherStudents lists the roster of the teacher with id in roster
// order.
func (f *Facade) TeacherStudents(ctx context.Context, teacherID uuid.UUID) ([]StudentView, error) {
	ctx = cache.WithTags(ctx, cache.EntityTag(model.KindTeacher, teacherID))
	return cache.GetOrFetch[[]StudentView](ctx, f.cache, cache.CollectionKey(model.KindStudent, "teacher", teacherID),
		listTags[StudentView](model.KindStudent),
		func(ctx context.Context) ([]StudentView, error) {
			teacher, err := f.reader.FindTeacher(ctx, teacherID)
			if err != nil {
				return nil, err
			}
			roster, err := f.roster(ctx, teacher)
			if err != nil {
				return nil, err
			}
			return f.studentViews(ctx, roster)
		})
}

// Teacher returns the teacher with id.
func (f *Facade) Teacher(ctx context.Context, id uuid.UUID) (*TeacherView, error) {
	return one[TeacherView](ctx, f, cache.EntityKey(model.KindTeacher, id), TeacherView.Tags,
		func(ctx context.Context) (TeacherView, error) {
			teacher, err := f.reader.FindTeacher(ctx, id)
			if err != nil {
				return TeacherView{}, err
			}
			return f.teacherView(ctx, teacher)
		})
}

// TeacherByEmail returns the teacher with email.
func (f *Facade) TeacherByEmail(ctx context.Context, email string) (*TeacherView, error) {
	return one[TeacherView](ctx, f, cache.LookupKey(model.KindTeacher, "email", email), TeacherView.Tags,
		func(ctx context.Context) (TeacherView, error) {
			teacher, err := f.reader.FindTeacherByEmail(ctx, email)
			if err != nil {
				return TeacherView{}, err
			}
			return f.teacherView(ctx, teacher)
		})
}

// Teachers lists every teacher, newest first.
func (f *Facade) Teachers(ctx context.Context) ([]TeacherView, error) {
	return cache.GetOrFetch[[]TeacherView](ctx, f.cache, cache.CollectionKey(model.KindTeacher),
		listTags[TeacherView](model.KindTeacher),
		func(ctx context.Context) ([]TeacherView, error) {
			teachers, err := f.reader.ListTeachers(ctx, store.TeacherFilter{})
			if err != nil {
				return nil, err
			}
			return f.teacherViews(ctx, teachers)
		})
}

func (f *Facade) studentView(ctx context.Context, student *model.Student) (StudentView, error) {
	views, err := f.studentViews(ctx, []*model.Student{student})
	if err != nil {
		return StudentView{}, err
	}
	return views[0], nil
}

func (f *Facade) studentViews(ctx context.Context, students []*model.Student) ([]StudentView, error) {
	teacherIDs := make([]uuid.UUID, 0, len(students))
	var borrowIDs []uuid.UUID
	for _, s := range students {
		teacherIDs = append(teacherIDs, s.TeacherID)
		borrowIDs = append(borrowIDs, s.BorrowedBooks...)
	}

	teachers, err := f.teachersByID(ctx, teacherIDs)
	if err != nil {
		return nil, err
	}
	borrows, err := f.borrowsByID(ctx, borrowIDs)
	if err != nil {
		return nil, err
	}

	views := make([]StudentView, len(students))
	for i, s := range students {
		history := make([]*model.Borrow, 0, len(s.BorrowedBooks))
		for _, id := range s.BorrowedBooks {
			if b, ok := borrows[id]; ok {
				history = append(history, b)
			}
		}
		views[i] = StudentView{Student: s, Teacher: teachers[s.TeacherID], Borrows: history}
	}
	return views, nil
}

func (f *Facade) teacherView(ctx context.Context, teacher *model.Teacher) (TeacherView, error) {
	roster, err := f.roster(ctx, teacher)
	if err != nil {
		return TeacherView{}, err
	}
	return TeacherView{Teacher: teacher, Students: roster}, nil
}

func (f *Facade) teacherViews(ctx context.Context, teachers []*model.Teacher) ([]TeacherView, error) {
	var studentIDs []uuid.UUID
	for _, t := range teachers {
		studentIDs = append(studentIDs, t.Students...)
	}
	students, err := f.studentsByID(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	views := make([]TeacherView, len(teachers))
	for i, t := range teachers {
		views[i] = TeacherView{Teacher: t, Students: inOrder(t.Students, students)}
	}
	return views, nil
}

// roster resolves the teacher's students in roster order.
func (f *Facade) roster(ctx context.Context, teacher *model.Teacher) ([]*model.Student, error) {
	students, err := f.studentsByID(ctx, teacher.Students)
	if err != nil {
		return nil, err
	}
	return inOrder(teacher.Students, students), nil
}

func inOrder(ids []uuid.UUID, byID map[uuid.UUID]*model.Student) []*model.Student {
	out := make([]*model.Student, 0, len(ids))
	for _, id := range ids {
		if s, ok := byID[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

func (f *Facade) studentsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Student, error) {
	out := make(map[uuid.UUID]*model.Student, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	students, err := f.reader.ListStudents(ctx, store.StudentFilter{IDs: uniqueIDs(ids)})
	if err != nil {
		return nil, err
	}
	for _, s := range students {
		out[s.ID] = s
	}
	return out, nil
}

func (f *Facade) teachersByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Teacher, error) {
	out := make(map[uuid.UUID]*model.Teacher, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	teachers, err := f.reader.ListTeachers(ctx, store.TeacherFilter{IDs: uniqueIDs(ids)})
	if err != nil {
		return nil, err
	}
	for _, t := range teachers {
		out[t.ID] = t
	}
	return out, nil
}
