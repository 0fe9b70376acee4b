package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Student belongs to exactly one teacher and keeps an ordered history of
// borrow records.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:s" json:"-"`

	ID            uuid.UUID   `bun:"id,pk" json:"id"`
	AccountID     *uuid.UUID  `bun:"account_id" json:"accountId,omitempty"`
	FirstName     string      `bun:"first_name,notnull" json:"firstName"`
	LastName      string      `bun:"last_name,notnull" json:"lastName"`
	Email         string      `bun:"email,notnull,unique" json:"email"`
	TeacherID     uuid.UUID   `bun:"teacher_id,notnull" json:"teacher"`
	BorrowedBooks []uuid.UUID `bun:"-" json:"borrowedBooks"`
	CreatedAt     time.Time   `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt     time.Time   `bun:"updated_at,notnull" json:"updatedAt"`
}

// HasBorrow reports whether id is part of the student's history.
func (s *Student) HasBorrow(id uuid.UUID) bool {
	for _, b := range s.BorrowedBooks {
		if b == id {
			return true
		}
	}
	return false
}

// StudentInput carries the fields needed to enrol a student under the
// teacher registered with TeacherEmail.
type StudentInput struct {
	FirstName    string
	LastName     string
	Email        string
	TeacherEmail string
	AccountID    *uuid.UUID
}

func (in StudentInput) Normalize() StudentInput {
	in.FirstName = Normalize(in.FirstName)
	in.LastName = Normalize(in.LastName)
	in.Email = Normalize(in.Email)
	in.TeacherEmail = Normalize(in.TeacherEmail)
	return in
}

func (in StudentInput) Validate() error {
	rules := validateProfile(&in.FirstName, &in.LastName, &in.Email)
	rules = append(rules, validation.Field(&in.TeacherEmail, validation.Required, is.EmailFormat))
	return validation.ValidateStruct(&in, rules...)
}

// StudentPatch lists the mutable profile fields. The teacher reference is
// changed through a roster move, never through a patch.
type StudentPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
}

func (p StudentPatch) names() names { return names(p) }

func (p StudentPatch) Normalize() StudentPatch { return StudentPatch(p.names().normalize()) }

func (p StudentPatch) Validate() error { return p.names().validate() }

// Apply copies the set fields onto s and returns the changed column names.
func (p StudentPatch) Apply(s *Student) []string {
	return p.names().apply(&s.FirstName, &s.LastName, &s.Email)
}
