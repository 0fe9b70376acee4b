package query

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
	"github.com/goliatone/go-library-records/store"
)

// Book returns the book with id.
func (f *Facade) Book(ctx context.Context, id uuid.UUID) (*BookView, error) {
	return one[BookView](ctx, f, cache.EntityKey(model.KindBook, id), BookView.Tags,
		func(ctx context.Context) (BookView, error) {
			book, err := f.reader.FindBook(ctx, id)
			if err != nil {
				return BookView{}, err
			}
			return f.bookView(ctx, book)
		})
}

// BookByTitle returns the oldest book with title.
func (f *Facade) BookByTitle(ctx context.Context, title string) (*BookView, error) {
	// titles are not unique: any book write can change which one is oldest
	return one[BookView](ctx, f, cache.LookupKey(model.KindBook, "title", title), lookupTags[BookView](model.KindBook),
		func(ctx context.Context) (BookView, error) {
			book, err := f.reader.FindBookByTitle(ctx, title)
			if err != nil {
				return BookView{}, err
			}
			return f.bookView(ctx, book)
		})
}

// BookByISBN returns the book with isbn.
func (f *Facade) BookByISBN(ctx context.Context, isbn string) (*BookView, error) {
	return one[BookView](ctx, f, cache.LookupKey(model.KindBook, "isbn", isbn), BookView.Tags,
		func(ctx context.Context) (BookView, error) {
			book, err := f.reader.FindBookByISBN(ctx, isbn)
			if err != nil {
				return BookView{}, err
			}
			return f.bookView(ctx, book)
		})
}

// Books lists every book, newest first.
func (f *Facade) Books(ctx context.Context) ([]BookView, error) {
	return cache.GetOrFetch[[]BookView](ctx, f.cache, cache.CollectionKey(model.KindBook),
		listTags[BookView](model.KindBook),
		func(ctx context.Context) ([]BookView, error) {
			return f.listBooks(ctx, store.BookFilter{})
		})
}

// BooksByStatus lists the books with status.
func (f *Facade) BooksByStatus(ctx context.Context, status model.BookStatus) ([]BookView, error) {
	if !status.Valid() {
		return nil, recorderr.InvalidInput(model.KindBook, fmt.Errorf("unknown book status %q", status))
	}
	return cache.GetOrFetch[[]BookView](ctx, f.cache, cache.CollectionKey(model.KindBook, "status", status),
		listTags[BookView](model.KindBook),
		func(ctx context.Context) ([]BookView, error) {
			return f.listBooks(ctx, store.BookFilter{Status: status})
		})
}

func (f *Facade) bookView(ctx context.Context, book *model.Book) (BookView, error) {
	views, err := f.bookViews(ctx, []*model.Book{book})
	if err != nil {
		return BookView{}, err
	}
	return views[0], nil
}

func (f *Facade) listBooks(ctx context.Context, filter store.BookFilter) ([]BookView, error) {
	books, err := f.reader.ListBooks(ctx, filter)
	if err != nil {
		return nil, err
	}
	return f.bookViews(ctx, books)
}

func (f *Facade) bookViews(ctx context.Context, books []*model.Book) ([]BookView, error) {
	var holderIDs []uuid.UUID
	for _, b := range books {
		if b.StudentID != nil {
			holderIDs = append(holderIDs, *b.StudentID)
		}
	}
	holders, err := f.studentsByID(ctx, holderIDs)
	if err != nil {
		return nil, err
	}

	views := make([]BookView, len(books))
	for i, b := range books {
		views[i] = BookView{Book: b}
		if b.StudentID != nil {
			views[i].Holder = holders[*b.StudentID]
		}
	}
	return views, nil
}

func (f *Facade) booksByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*model.Book, error) {
	out := make(map[uuid.UUID]*model.Book, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	books, err := f.reader.ListBooks(ctx, store.BookFilter{IDs: uniqueIDs(ids)})
	if err != nil {
		return nil, err
	}
	for _, b := range books {
		out[b.ID] = b
	}
	return out, nil
}
