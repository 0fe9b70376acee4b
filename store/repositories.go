package store

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-library-records/model"
)

func newBookRepository(db *bun.DB) repository.Repository[*model.Book] {
	return repository.NewRepository[*model.Book](db, repository.ModelHandlers[*model.Book]{
		NewRecord:     func() *model.Book { return &model.Book{} },
		GetID:         func(b *model.Book) uuid.UUID { return b.ID },
		SetID:         func(b *model.Book, id uuid.UUID) { b.ID = id },
		GetIdentifier: func() string { return "isbn" },
	})
}

func newStudentRepository(db *bun.DB) repository.Repository[*model.Student] {
	return repository.NewRepository[*model.Student](db, repository.ModelHandlers[*model.Student]{
		NewRecord:     func() *model.Student { return &model.Student{} },
		GetID:         func(s *model.Student) uuid.UUID { return s.ID },
		SetID:         func(s *model.Student, id uuid.UUID) { s.ID = id },
		GetIdentifier: func() string { return "email" },
	})
}

func newTeacherRepository(db *bun.DB) repository.Repository[*model.Teacher] {
	return repository.NewRepository[*model.Teacher](db, repository.ModelHandlers[*model.Teacher]{
		NewRecord:     func() *model.Teacher { return &model.Teacher{} },
		GetID:         func(t *model.Teacher) uuid.UUID { return t.ID },
		SetID:         func(t *model.Teacher, id uuid.UUID) { t.ID = id },
		GetIdentifier: func() string { return "email" },
	})
}

func newBorrowRepository(db *bun.DB) repository.Repository[*model.Borrow] {
	return repository.NewRepository[*model.Borrow](db, repository.ModelHandlers[*model.Borrow]{
		NewRecord:     func() *model.Borrow { return &model.Borrow{} },
		GetID:         func(b *model.Borrow) uuid.UUID { return b.ID },
		SetID:         func(b *model.Borrow, id uuid.UUID) { b.ID = id },
		GetIdentifier: func() string { return "id" },
	})
}

func newAccountRepository(db *bun.DB) repository.Repository[*model.Account] {
	return repository.NewRepository[*model.Account](db, repository.ModelHandlers[*model.Account]{
		NewRecord:     func() *model.Account { return &model.Account{} },
		GetID:         func(a *model.Account) uuid.UUID { return a.ID },
		SetID:         func(a *model.Account, id uuid.UUID) { a.ID = id },
		GetIdentifier: func() string { return "email" },
	})
}

// where builds a select criteria matching column against value on the
// model's table alias.
func where(column string, value any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(column), value)
	}
}

func whereIn[T any](column string, values []T) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? IN (?)", bun.Ident(column), bun.In(values))
	}
}

func orderBy(expr string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.OrderExpr("?TableAlias." + expr)
	}
}

func limit(n int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(n)
	}
}

// firstOf returns the first record, or false when there is none.
func firstOf[T any](records []T) (T, bool) {
	var zero T
	if len(records) == 0 {
		return zero, false
	}
	return records[0], true
}
