package query

import (
	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/model"
)

// BookView is a book with the student currently holding it.
type BookView struct {
	Book   *model.Book    `json:"book"`
	Holder *model.Student `json:"holder,omitempty"`
}

func (v BookView) Tags() []string {
	tags := []string{cache.EntityTag(model.KindBook, v.Book.ID)}
	if v.Holder != nil {
		tags = append(tags, cache.EntityTag(model.KindStudent, v.Holder.ID))
	}
	return tags
}

// StudentView is a student with its teacher and its borrow history in
// history order.
type StudentView struct {
	Student *model.Student  `json:"student"`
	Teacher *model.Teacher  `json:"teacher,omitempty"`
	Borrows []*model.Borrow `json:"borrows"`
}

func (v StudentView) Tags() []string {
	tags := make([]string, 0, 2+len(v.Borrows))
	tags = append(tags, cache.EntityTag(model.KindStudent, v.Student.ID))
	if v.Teacher != nil {
		tags = append(tags, cache.EntityTag(model.KindTeacher, v.Teacher.ID))
	}
	for _, b := range v.Borrows {
		tags = append(tags, cache.EntityTag(model.KindBorrow, b.ID))
	}
	return tags
}

// TeacherView is a teacher with its roster in roster order.
type TeacherView struct {
	Teacher  *model.Teacher   `json:"teacher"`
	Students []*model.Student `json:"students"`
}

func (v TeacherView) Tags() []string {
	tags := make([]string, 0, 1+len(v.Students))
	tags = append(tags, cache.EntityTag(model.KindTeacher, v.Teacher.ID))
	for _, s := range v.Students {
		tags = append(tags, cache.EntityTag(model.KindStudent, s.ID))
	}
	return tags
}

// BorrowView is a loan with its book and student. Book or Student is nil
// when a closed loan outlived the record.
type BorrowView struct {
	Borrow  *model.Borrow  `json:"borrow"`
	Book    *model.Book    `json:"book,omitempty"`
	Student *model.Student `json:"student,omitempty"`
}

func (v BorrowView) Tags() []string {
	return []string{
		cache.EntityTag(model.KindBorrow, v.Borrow.ID),
		cache.EntityTag(model.KindBook, v.Borrow.BookID),
		cache.EntityTag(model.KindStudent, v.Borrow.StudentID),
	}
}

type tagger interface {
	Tags() []string
}

// lookupTags tags a view found by a non-unique field with its collection
// as well as its own tags.
func lookupTags[V tagger](kind model.Kind) cache.TagFn[V] {
	return func(v V) []string {
		return append(v.Tags(), cache.CollectionTag(kind))
	}
}

// listTags tags a listing with its collection, extra and every member.
func listTags[V tagger](kind model.Kind, extra ...string) cache.TagFn[[]V] {
	return func(views []V) []string {
		tags := append([]string{cache.CollectionTag(kind)}, extra...)
		for _, v := range views {
			tags = append(tags, v.Tags()...)
		}
		return tags
	}
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
