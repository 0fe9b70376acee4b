package consistency

import (
	"context"

	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

// CreateBook registers an available book. The ISBN must be unused.
func (m *Manager) CreateBook(ctx context.Context, in model.BookInput) (*model.Book, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, recorderr.InvalidInput(model.KindBook, err)
	}

	// the unique index still decides concurrent inserts
	if _, err := m.records.FindBookByISBN(ctx, in.ISBN); err == nil {
		return nil, recorderr.Conflict(recorderr.ReasonDuplicateISBN, model.KindBook, in.ISBN)
	} else if !isNotFound(err) {
		return nil, err
	}

	book := &model.Book{
		Title:           in.Title,
		Author:          in.Author,
		Publisher:       in.Publisher,
		PublicationDate: in.PublicationDate,
		ISBN:            in.ISBN,
		Status:          model.BookAvailable,
	}
	if err := m.records.InsertBook(ctx, book); err != nil {
		return nil, err
	}

	m.invalidate(ctx, ref{model.KindBook, book.ID})
	m.logger.Debug("book created", idField("book_id", book.ID))
	return book, nil
}

// UpdateBook applies a typed patch to the book's catalogue fields. Status
// and holder change only through loans.
func (m *Manager) UpdateBook(ctx context.Context, id uuid.UUID, patch model.BookPatch) (*model.Book, error) {
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, recorderr.InvalidInput(model.KindBook, err)
	}
	if patch.ISBN != nil {
		other, err := m.records.FindBookByISBN(ctx, *patch.ISBN)
		if err == nil && other.ID != id {
			return nil, recorderr.Conflict(recorderr.ReasonDuplicateISBN, model.KindBook, *patch.ISBN)
		}
		if err != nil && !isNotFound(err) {
			return nil, err
		}
	}

	book, err := m.records.UpdateBook(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	m.invalidate(ctx, ref{model.KindBook, id})
	return book, nil
}
