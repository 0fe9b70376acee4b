package model

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// names holds the fields shared by student and teacher profiles and their
// patches.
type names struct {
	FirstName *string
	LastName  *string
	Email     *string
}

func (n names) normalize() names {
	n.FirstName = normalizePtr(n.FirstName)
	n.LastName = normalizePtr(n.LastName)
	n.Email = normalizePtr(n.Email)
	return n
}

func (n names) validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.FirstName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&n.LastName, validation.NilOrNotEmpty, validation.Length(1, 100)),
		validation.Field(&n.Email, validation.NilOrNotEmpty, is.EmailFormat),
	)
}

func (n names) apply(first, last, email *string) []string {
	var cols []string
	if n.FirstName != nil {
		*first = *n.FirstName
		cols = append(cols, "first_name")
	}
	if n.LastName != nil {
		*last = *n.LastName
		cols = append(cols, "last_name")
	}
	if n.Email != nil {
		*email = *n.Email
		cols = append(cols, "email")
	}
	return cols
}

func validateProfile(first, last, email *string) []*validation.FieldRules {
	return []*validation.FieldRules{
		validation.Field(first, validation.Required, validation.Length(1, 100)),
		validation.Field(last, validation.Required, validation.Length(1, 100)),
		validation.Field(email, validation.Required, is.EmailFormat),
	}
}
