package model

import (
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BookStatus is either available or borrowed.
type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookBorrowed  BookStatus = "borrowed"
)

// Valid reports whether s is a known status.
func (s BookStatus) Valid() bool {
	return s == BookAvailable || s == BookBorrowed
}

var isbnPattern = regexp.MustCompile(`^[0-9][0-9x-]*$`)

// Book is a catalogue entry. Status is borrowed iff StudentID is set.
type Book struct {
	bun.BaseModel `bun:"table:books,alias:b" json:"-"`

	ID              uuid.UUID  `bun:"id,pk" json:"id"`
	Title           string     `bun:"title,notnull" json:"title"`
	Author          string     `bun:"author,notnull" json:"author"`
	Publisher       string     `bun:"publisher,notnull" json:"publisher"`
	PublicationDate time.Time  `bun:"publication_date,notnull" json:"publicationDate"`
	ISBN            string     `bun:"isbn,notnull,unique" json:"isbn"`
	Status          BookStatus `bun:"status,notnull" json:"status"`
	StudentID       *uuid.UUID `bun:"student_id" json:"student"`
	CreatedAt       time.Time  `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt       time.Time  `bun:"updated_at,notnull" json:"updatedAt"`
}

// Consistent reports whether the status agrees with the holder reference.
func (b *Book) Consistent() bool {
	if b.Status == BookBorrowed {
		return b.StudentID != nil
	}
	return b.Status == BookAvailable && b.StudentID == nil
}

// BookInput carries the fields needed to catalogue a new book.
type BookInput struct {
	Title           string
	Author          string
	Publisher       string
	PublicationDate time.Time
	ISBN            string
}

// Normalize returns a copy with every text field normalised.
func (in BookInput) Normalize() BookInput {
	in.Title = Normalize(in.Title)
	in.Author = Normalize(in.Author)
	in.Publisher = Normalize(in.Publisher)
	in.ISBN = Normalize(in.ISBN)
	return in
}

func (in BookInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Author, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.Publisher, validation.Required, validation.Length(1, 255)),
		validation.Field(&in.PublicationDate, validation.Required),
		validation.Field(&in.ISBN, validation.Required, validation.Length(10, 17), validation.Match(isbnPattern)),
	)
}

// BookPatch lists the mutable catalogue fields. Status and holder are not
// patchable.
type BookPatch struct {
	Title           *string
	Author          *string
	Publisher       *string
	PublicationDate *time.Time
	ISBN            *string
}

func (p BookPatch) Normalize() BookPatch {
	p.Title = normalizePtr(p.Title)
	p.Author = normalizePtr(p.Author)
	p.Publisher = normalizePtr(p.Publisher)
	p.ISBN = normalizePtr(p.ISBN)
	return p
}

func (p BookPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&p.Author, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&p.Publisher, validation.NilOrNotEmpty, validation.Length(1, 255)),
		validation.Field(&p.PublicationDate, validation.NilOrNotEmpty),
		validation.Field(&p.ISBN, validation.NilOrNotEmpty, validation.Length(10, 17), validation.Match(isbnPattern)),
	)
}

// Apply copies the set fields onto b and returns the changed column names.
func (p BookPatch) Apply(b *Book) []string {
	var cols []string
	if p.Title != nil {
		b.Title = *p.Title
		cols = append(cols, "title")
	}
	if p.Author != nil {
		b.Author = *p.Author
		cols = append(cols, "author")
	}
	if p.Publisher != nil {
		b.Publisher = *p.Publisher
		cols = append(cols, "publisher")
	}
	if p.PublicationDate != nil {
		b.PublicationDate = *p.PublicationDate
		cols = append(cols, "publication_date")
	}
	if p.ISBN != nil {
		b.ISBN = *p.ISBN
		cols = append(cols, "isbn")
	}
	return cols
}
