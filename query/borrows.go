package query

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/store"
)

// Borrow returns the loan with id.
func (f *Facade) Borrow(ctx context.Context, id uuid.UUID) (*BorrowView, error) {
	return one[BorrowView](ctx, f, cache.EntityKey(model.KindBorrow, id), BorrowView.Tags,
		func(ctx context.Context) (BorrowView, error) {
			borrow, err := f.reader.FindBorrow(ctx, id)
			if err != nil {
				return BorrowView{}, err
			}
			views, err := f.borrowViews(ctx, []*model.Borrow{borrow})
			if err != nil {
				return BorrowView{}, err
			}
			return views[0], nil
		})
}

// Borrows lists every loan, most recent borrow date first.
func (f *Facade) Borrows(ctx context.Context) ([]BorrowView, error) {
	return f.listBorrows(ctx, cache.CollectionKey(model.KindBorrow), store.BorrowFilter{}, nil)
}

// BorrowsByStudent lists the loans of the student with id.
func (f *Facade) BorrowsByStudent(ctx context.Context, studentID uuid.UUID) ([]BorrowView, error) {
	ctx = cache.WithTags(ctx, cache.EntityTag(model.KindStudent, studentID))
	return f.listBorrows(ctx, cache.CollectionKey(model.KindBorrow, "student", studentID),
		store.BorrowFilter{StudentID: &studentID},
		func(ctx context.Context) error {
			_, err := f.reader.FindStudent(ctx, studentID)
			return err
		})
}

// BorrowsByBook lists the loans of the book with id.
func (f *Facade) BorrowsByBook(ctx context.Context, bookID uuid.UUID) ([]BorrowView, error) {
	ctx = cache.WithTags(ctx, cache.EntityTag(model.KindBook, bookID))
	return f.listBorrows(ctx, cache.CollectionKey(model.KindBorrow, "book", bookID),
		store.BorrowFilter{BookID: &bookID},
		func(ctx context.Context) error {
			_, err := f.reader.FindBook(ctx, bookID)
			return err
		})
}

// listBorrows caches the loans matching filter under key. exists, when
// set, fails the read for an absent owner instead of returning an empty
// listing.
func (f *Facade) listBorrows(ctx context.Context, key string, filter store.BorrowFilter, exists func(context.Context) error) ([]BorrowView, error) {
	return cache.GetOrFetch[[]BorrowView](ctx, f.cache, key,
		listTags[BorrowView](model.KindBorrow),
		func(ctx context.Context) ([]BorrowView, error) {
			if exists != nil {
				if err := exists(ctx); err != nil {
					return nil, err
				}
			}
			borrows, err := f.reader.ListBorrows(ctx, filter)
			if err != nil {
				return nil, err
			}
			return f.borrowViews(ctx, borrows)
		})
}

func (f *Facade) borrowViews(ctx context.Context, borrows []*model.Borrow) ([]BorrowView, error) {
	bookIDs := make([]uuid.UUID, 0, len(borrows))
	studentIDs := make([]uuid.UUID, 0, len(borrows))
	for _, b := range borrows {
		bookIDs = append(bookIDs, b.BookID)
		studentIDs = append(studentIDs, b.StudentID)
	}

	books, err := f.booksByID(ctx, bookIDs)
	if err != nil {
		return nil, err
	}
	students, err := f.studentsByID(ctx, studentIDs)
	if err != nil {
		return nil, err
	}

	views := make([]BorrowView, len(borrows))
	for i, b := range borrows {
		views[i] = BorrowView{Borrow: b, Book: books[b.BookID], Student: students[b.StudentID]}
	}
	return views, nil
}

func (f *Facade) borrowsByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Borrow, error) {
	out := make(map[uuid.UUID]*model.Borrow, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	borrows, err := f.reader.ListBorrows(ctx, store.BorrowFilter{IDs: uniqueIDs(ids)})
	if err != nil {
		return nil, err
	}
	for _, b := range borrows {
		out[b.ID] = b
	}
	return out, nil
}
