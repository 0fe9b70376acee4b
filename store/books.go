package store

import (
	"context"
	"database/sql"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

// BookFilter narrows ListBooks. Zero fields match everything.
type BookFilter struct {
	IDs      []uuid.UUID
	Status   model.BookStatus
	HolderID *uuid.UUID
}

func (f BookFilter) criteria() []repository.SelectCriteria {
	var c []repository.SelectCriteria
	if f.IDs != nil {
		c = append(c, whereIn("id", f.IDs))
	}
	if f.Status != "" {
		c = append(c, where("status", f.Status))
	}
	if f.HolderID != nil {
		c = append(c, where("student_id", *f.HolderID))
	}
	return append(c, orderBy("created_at DESC"), orderBy("id ASC"))
}

// FindBook returns the book with id.
func (s *Store) FindBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	return s.findBook(ctx, recorderr.NotFound(model.KindBook, id), where("id", id))
}

// FindBookByISBN returns the book with the normalised isbn.
func (s *Store) FindBookByISBN(ctx context.Context, isbn string) (*model.Book, error) {
	isbn = model.Normalize(isbn)
	return s.findBook(ctx, &recorderr.NotFoundError{Kind: model.KindBook, ID: "isbn:" + isbn}, where("isbn", isbn))
}

// FindBookByTitle returns the oldest book with the normalised title.
func (s *Store) FindBookByTitle(ctx context.Context, title string) (*model.Book, error) {
	title = model.Normalize(title)
	return s.findBook(ctx, &recorderr.NotFoundError{Kind: model.KindBook, ID: "title:" + title},
		where("title", title), orderBy("created_at ASC"))
}

func (s *Store) findBook(ctx context.Context, notFound error, criteria ...repository.SelectCriteria) (*model.Book, error) {
	records, _, err := s.books.List(ctx, append(criteria, limit(1))...)
	if err != nil {
		return nil, recorderr.Unavailable("find book", err)
	}
	book, ok := firstOf(records)
	if !ok {
		return nil, notFound
	}
	return book, nil
}

// ListBooks returns the books matching f, newest first.
func (s *Store) ListBooks(ctx context.Context, f BookFilter) ([]*model.Book, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []*model.Book{}, nil
	}
	records, _, err := s.books.List(ctx, f.criteria()...)
	if err != nil {
		return nil, recorderr.Unavailable("list books", err)
	}
	return records, nil
}

// InsertBook persists a new book. A duplicate ISBN is a conflict.
func (s *Store) InsertBook(ctx context.Context, b *model.Book) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := s.timestamp()
	b.CreatedAt, b.UpdatedAt = now, now
	b.PublicationDate = b.PublicationDate.UTC()

	if _, err := s.books.Create(ctx, b); err != nil {
		if violatesIndex(err, "isbn") {
			return recorderr.Conflict(recorderr.ReasonDuplicateISBN, model.KindBook, b.ISBN)
		}
		return recorderr.Unavailable("insert book", err)
	}
	return nil
}

// UpdateBook applies patch to the book with id and returns the result.
func (s *Store) UpdateBook(ctx context.Context, id uuid.UUID, patch model.BookPatch) (*model.Book, error) {
	book, err := s.FindBook(ctx, id)
	if err != nil {
		return nil, err
	}

	cols := patch.Apply(book)
	if len(cols) == 0 {
		return book, nil
	}
	book.PublicationDate = book.PublicationDate.UTC()
	book.UpdatedAt = s.timestamp()

	res, err := s.db.NewUpdate().
		Model(book).
		Column(append(cols, "updated_at")...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if violatesIndex(err, "isbn") {
			return nil, recorderr.Conflict(recorderr.ReasonDuplicateISBN, model.KindBook, id.String())
		}
		return nil, recorderr.Unavailable("update book", err)
	}
	if !affected(res) {
		return nil, recorderr.NotFound(model.KindBook, id)
	}
	return book, nil
}

// ReserveBook marks an available book as borrowed by studentID. It fails
// with Conflict(ActiveLoan) when the book is not available at the time of
// the update.
func (s *Store) ReserveBook(ctx context.Context, bookID, studentID uuid.UUID) error {
	res, err := s.db.NewUpdate().
		Model((*model.Book)(nil)).
		Set("status = ?", model.BookBorrowed).
		Set("student_id = ?", studentID).
		Set("updated_at = ?", s.timestamp()).
		Where("id = ?", bookID).
		Where("status = ?", model.BookAvailable).
		Where("student_id IS NULL").
		Exec(ctx)
	if err != nil {
		return recorderr.Unavailable("reserve book", err)
	}
	if affected(res) {
		return nil
	}

	if _, err := s.FindBook(ctx, bookID); err != nil {
		return err
	}
	return recorderr.Conflict(recorderr.ReasonActiveLoan, model.KindBook, bookID.String())
}

// ReleaseBook makes the book available again if studentID still holds it.
// It reports whether the book changed.
func (s *Store) ReleaseBook(ctx context.Context, bookID, studentID uuid.UUID) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*model.Book)(nil)).
		Set("status = ?", model.BookAvailable).
		Set("student_id = NULL").
		Set("updated_at = ?", s.timestamp()).
		Where("id = ?", bookID).
		Where("student_id = ?", studentID).
		Where("status = ?", model.BookBorrowed).
		Exec(ctx)
	if err != nil {
		return false, recorderr.Unavailable("release book", err)
	}
	return affected(res), nil
}

// DeleteBook removes the book with id and returns it. A borrowed book is
// kept and the call fails with Conflict(ActiveLoan).
func (s *Store) DeleteBook(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	book, err := s.FindBook(ctx, id)
	if err != nil {
		return nil, err
	}

	res, err := s.db.NewDelete().
		Model((*model.Book)(nil)).
		Where("id = ?", id).
		Where("status = ?", model.BookAvailable).
		Exec(ctx)
	if err != nil {
		return nil, recorderr.Unavailable("delete book", err)
	}
	if !affected(res) {
		return nil, recorderr.Conflict(recorderr.ReasonActiveLoan, model.KindBook, id.String())
	}
	return book, nil
}

func affected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}
