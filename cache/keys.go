package cache

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/model"
)

// KeySeparator defines the delimiter used between cache key segments.
const KeySeparator = "::"

// KeySerializer builds a cache key from a name and arbitrary args.
// It is responsible for producing stable keys across calls and processes.
type KeySerializer interface {
	SerializeKey(name string, args ...any) string
}

type defaultKeySerializer struct{}

// NewDefaultKeySerializer returns the serializer used by the key helpers.
func NewDefaultKeySerializer() KeySerializer {
	return defaultKeySerializer{}
}

func (defaultKeySerializer) SerializeKey(name string, args ...any) string {
	if len(args) == 0 {
		return name
	}
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, name)
	for _, arg := range args {
		parts = append(parts, serializeValue(arg))
	}
	return strings.Join(parts, KeySeparator)
}

func serializeValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return x
	case uuid.UUID:
		return x.String()
	case *uuid.UUID:
		if x == nil {
			return "nil"
		}
		return x.String()
	case fmt.Stringer:
		return x.String()
	case []uuid.UUID:
		ids := make([]string, len(x))
		for i, id := range x {
			ids[i] = id.String()
		}
		return "[" + strings.Join(ids, ",") + "]"
	default:
		return fmt.Sprintf("%v", x)
	}
}

var serializer = NewDefaultKeySerializer()

// EntityKey is the key of the cached view of one entity.
func EntityKey(kind model.Kind, id uuid.UUID) string {
	return serializer.SerializeKey(string(kind), id)
}

// LookupKey is the key of an entity view found by a unique field, for
// example book::isbn::<isbn>.
func LookupKey(kind model.Kind, field, value string) string {
	return serializer.SerializeKey(string(kind), field, model.Normalize(value))
}

// CollectionKey is the key of a listing of kind, optionally narrowed by a
// filter expressed as field/value pairs, for example
// borrows::student::<id>.
func CollectionKey(kind model.Kind, filter ...any) string {
	return serializer.SerializeKey(kind.Plural(), filter...)
}

// EntityTag groups every cached view that embeds the entity.
func EntityTag(kind model.Kind, id uuid.UUID) string {
	return serializer.SerializeKey("tag", string(kind), id)
}

// CollectionTag groups every cached listing of kind.
func CollectionTag(kind model.Kind) string {
	return serializer.SerializeKey("tag", kind.Plural())
}
