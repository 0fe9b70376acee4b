package model

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the access level of an account.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)

// Account holds credentials for a person. It owns at most one student or
// teacher profile.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:a" json:"-"`

	ID           uuid.UUID `bun:"id,pk" json:"id"`
	FirstName    string    `bun:"first_name,notnull" json:"firstName"`
	LastName     string    `bun:"last_name,notnull" json:"lastName"`
	Email        string    `bun:"email,notnull,unique" json:"email"`
	PasswordHash string    `bun:"password_hash,notnull" json:"-"`
	Role         Role      `bun:"role,notnull" json:"role"`
	Verified     bool      `bun:"verified,notnull" json:"verified"`
	Token        *string   `bun:"token" json:"-"`
	CreatedAt    time.Time `bun:"created_at,notnull" json:"createdAt"`
	UpdatedAt    time.Time `bun:"updated_at,notnull" json:"updatedAt"`
}

// AccountInput registers an account. TeacherEmail is required for
// students.
type AccountInput struct {
	FirstName    string
	LastName     string
	Email        string
	Password     string
	Role         Role
	TeacherEmail string
}

func (in AccountInput) Normalize() AccountInput {
	in.FirstName = Normalize(in.FirstName)
	in.LastName = Normalize(in.LastName)
	in.Email = Normalize(in.Email)
	in.Role = Role(Normalize(string(in.Role)))
	in.TeacherEmail = Normalize(in.TeacherEmail)
	return in
}

func (in AccountInput) Validate() error {
	rules := validateProfile(&in.FirstName, &in.LastName, &in.Email)
	rules = append(rules,
		// bcrypt ignores input past 72 bytes
		validation.Field(&in.Password, validation.Required, validation.Length(8, 72)),
		validation.Field(&in.Role, validation.Required, validation.In(RoleAdmin, RoleTeacher, RoleStudent)),
		validation.Field(&in.TeacherEmail,
			validation.When(in.Role == RoleStudent, validation.Required, is.EmailFormat)),
	)
	return validation.ValidateStruct(&in, rules...)
}

// AccountPatch lists the mutable account fields.
type AccountPatch struct {
	FirstName *string
	LastName  *string
}

func (p AccountPatch) Normalize() AccountPatch {
	p.FirstName = normalizePtr(p.FirstName)
	p.LastName = normalizePtr(p.LastName)
	return p
}

func (p AccountPatch) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.FirstName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&p.LastName, validation.NilOrNotEmpty, validation.Length(1, 100)),
	)
}

// Apply copies the set fields onto a and returns the changed column names.
func (p AccountPatch) Apply(a *Account) []string {
	var cols []string
	if p.FirstName != nil {
		a.FirstName = *p.FirstName
		cols = append(cols, "first_name")
	}
	if p.LastName != nil {
		a.LastName = *p.LastName
		cols = append(cols, "last_name")
	}
	return cols
}
