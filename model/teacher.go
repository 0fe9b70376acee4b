package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Teacher owns a roster of students.
type Teacher struct {
	bun.BaseModel `bun:"table:teachers,alias:t" json:"-"`

	ID        uuid.UUID   `bun:"id,pk" json:"id"`
	AccountID *uuid.UUID  `bun:"account_id" json:"accountId,omitempty"`
	FirstName string      `bun:"first_name,notnull" json:"firstName"`
	LastName  string      `bun:"last_name,notnull" json:"lastName"`
	Email     string      `bun:"email,notnull,unique" json:"email"`
	Students  []uuid.UUID `bun:"-" json:"students"`
	CreatedAt time.Time   `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt time.Time   `bun:"updated_at,notnull" json:"updatedAt"`
}

// HasStudent reports whether id is on the roster.
func (t *Teacher) HasStudent(id uuid.UUID) bool {
	for _, s := range t.Students {
		if s == id {
			return true
		}
	}
	return false
}

// TeacherInput carries the fields needed to register a teacher.
type TeacherInput struct {
	FirstName string
	LastName  string
	Email     string
	AccountID *uuid.UUID
}

func (in TeacherInput) Normalize() TeacherInput {
	in.FirstName = Normalize(in.FirstName)
	in.LastName = Normalize(in.LastName)
	in.Email = Normalize(in.Email)
	return in
}

func (in TeacherInput) Validate() error {
	return validation.ValidateStruct(&in, validateProfile(&in.FirstName, &in.LastName, &in.Email)...)
}

// TeacherPatch lists the mutable profile fields. The roster is not
// patchable.
type TeacherPatch struct {
	FirstName *string
	LastName  *string
	Email     *string
}

func (p TeacherPatch) names() names { return names(p) }

func (p TeacherPatch) Normalize() TeacherPatch { return TeacherPatch(p.names().normalize()) }

func (p TeacherPatch) Validate() error { return p.names().validate() }

// Apply copies the set fields onto t and returns the changed column names.
func (p TeacherPatch) Apply(t *Teacher) []string {
	return p.names().apply(&t.FirstName, &t.LastName, &t.Email)
}
