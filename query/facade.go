package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/store"
)

// Reader is the read side of the record store. *store.Store implements it.
type Reader interface {
	FindBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
	FindBookByTitle(ctx context.Context, title string) (*model.Book, error)
	FindBookByISBN(ctx context.Context, isbn string) (*model.Book, error)
	ListBooks(ctx context.Context, f store.BookFilter) ([]*model.Book, error)

	FindStudent(ctx context.Context, id uuid.UUID) (*model.Student, error)
	FindStudentByEmail(ctx context.Context, email string) (*model.Student, error)
	ListStudents(ctx context.Context, f store.StudentFilter) ([]*model.Student, error)

	FindTeacher(ctx context.Context, id uuid.UUID) (*model.Teacher, error)
	FindTeacherByEmail(ctx context.Context, email string) (*model.Teacher, error)
	ListTeachers(ctx context.Context, f store.TeacherFilter) ([]*model.Teacher, error)

	FindBorrow(ctx context.Context, id uuid.UUID) (*model.Borrow, error)
	ListBorrows(ctx context.Context, f store.BorrowFilter) ([]*model.Borrow, error)

	FindAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

var _ Reader = (*store.Store)(nil)

// Facade answers reads from the cache layer, falling back to the record
// store on a miss.
type Facade struct {
	reader Reader
	cache  *cache.Layer
}

// New returns a Facade. A nil layer reads straight from the store.
func New(reader Reader, layer *cache.Layer) *Facade {
	if layer == nil {
		layer = cache.NewLayer(cache.NopStore{})
	}
	return &Facade{reader: reader, cache: layer}
}

func one[V any](ctx context.Context, f *Facade, key string, tags cache.TagFn[V], fetch cache.FetchFn[V]) (*V, error) {
	view, err := cache.GetOrFetch[V](ctx, f.cache, key, tags, fetch)
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// Account returns the account with id, uncached.
func (f *Facade) Account(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return f.reader.FindAccount(ctx, id)
}
