package model

import (
	"fmt"
	"strings"
)

// Kind names an entity collection.
type Kind string

const (
	KindBook    Kind = "book"
	KindStudent Kind = "student"
	KindTeacher Kind = "teacher"
	KindBorrow  Kind = "borrow"
	KindAccount Kind = "account"
)

// Kinds lists every entity kind in a stable order.
var Kinds = []Kind{KindBook, KindStudent, KindTeacher, KindBorrow, KindAccount}

func (k Kind) String() string { return string(k) }

// Plural returns the collection name used for list keys and CLI arguments.
func (k Kind) Plural() string { return string(k) + "s" }

// ParseKind accepts singular or plural kind names, case-insensitively.
func ParseKind(s string) (Kind, error) {
	v := Normalize(s)
	for _, k := range Kinds {
		if v == string(k) || v == k.Plural() {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown entity kind %q", s)
}

// Normalize trims and lower-cases free text the way every stored name,
// email, title and ISBN is kept.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Normalize(*s)
	return &v
}
