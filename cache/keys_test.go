package cache

import (
	"context"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/model"
)

func TestDefaultKeySerializer(t *testing.T) {
	serializer := NewDefaultKeySerializer()
	id := uuid.MustParse("7d0c5b4e-5d0b-4c59-9a59-7c1b5f0a9a11")

	tests := []struct {
		name string
		key  string
		args []any
		want string
	}{
		{name: "no args", key: "books", want: "books"},
		{name: "uuid", key: "book", args: []any{id}, want: "book::" + id.String()},
		{name: "uuid pointer", key: "book", args: []any{&id}, want: "book::" + id.String()},
		{name: "nil pointer", key: "book", args: []any{(*uuid.UUID)(nil)}, want: "book::nil"},
		{name: "stringer", key: "tag", args: []any{model.KindBook}, want: "tag::book"},
		{name: "basic types", key: "page", args: []any{1, true, "x"}, want: "page::1::true::x"},
		{name: "typed string", key: "books", args: []any{"status", model.BookBorrowed}, want: "books::status::borrowed"},
		{name: "uuid list", key: "ids", args: []any{[]uuid.UUID{id, id}}, want: "ids::[" + id.String() + "," + id.String() + "]"},
		{name: "nil", key: "x", args: []any{nil}, want: "x::nil"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := serializer.SerializeKey(tt.key, tt.args...); got != tt.want {
				t.Errorf("SerializeKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestKeyHelpers(t *testing.T) {
	id := uuid.MustParse("7d0c5b4e-5d0b-4c59-9a59-7c1b5f0a9a11")

	tests := []struct {
		name string
		got  string
		want string
	}{
		{name: "entity", got: EntityKey(model.KindStudent, id), want: "student::" + id.String()},
		{name: "lookup normalises", got: LookupKey(model.KindTeacher, "email", " A@X.com "), want: "teacher::email::a@x.com"},
		{name: "collection", got: CollectionKey(model.KindStudent), want: "students"},
		{name: "filtered collection", got: CollectionKey(model.KindBorrow, "student", id), want: "borrows::student::" + id.String()},
		{name: "entity tag", got: EntityTag(model.KindBook, id), want: "tag::book::" + id.String()},
		{name: "collection tag", got: CollectionTag(model.KindBook), want: "tag::books"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %q, want %q", tt.got, tt.want)
			}
		})
	}

	if EntityKey(model.KindBook, id) == EntityTag(model.KindBook, id) {
		t.Error("keys and tags must not collide")
	}
}

func TestWithTags(t *testing.T) {
	ctx := WithTags(context.Background(), "a", "b")
	ctx = WithTags(ctx, "b", "c", "")

	want := []string{"a", "b", "c"}
	if got := tagsFromContext(ctx); !reflect.DeepEqual(got, want) {
		t.Errorf("tagsFromContext() = %v, want %v", got, want)
	}

	base := context.Background()
	if WithTags(base) != base {
		t.Error("expected context without tags to be returned unchanged")
	}
	if got := tagsFromContext(base); got != nil {
		t.Errorf("expected no tags, got %v", got)
	}
}
