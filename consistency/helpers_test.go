package consistency_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-library-records/consistency"
	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/pkg/testsupport"
	"github.com/goliatone/go-library-records/store"
)

var errInjected = errors.New("injected store failure")

// faultyRecords fails selected writes of a real store.
type faultyRecords struct {
	*store.Store

	appendRosterErr  func(teacherID uuid.UUID) error
	appendHistoryErr error
	releaseErr       error
	revertErr        error
	deleteStudentErr error
	updateStudentErr error

	// hooks run between the real call and its return
	afterFindTeacherByEmail func()
	afterInsertStudent      func()
}

func (f *faultyRecords) FindTeacherByEmail(ctx context.Context, email string) (*model.Teacher, error) {
	teacher, err := f.Store.FindTeacherByEmail(ctx, email)
	if err == nil && f.afterFindTeacherByEmail != nil {
		f.afterFindTeacherByEmail()
	}
	return teacher, err
}

func (f *faultyRecords) InsertStudent(ctx context.Context, s *model.Student) error {
	err := f.Store.InsertStudent(ctx, s)
	if err == nil && f.afterInsertStudent != nil {
		f.afterInsertStudent()
	}
	return err
}

func (f *faultyRecords) AppendRoster(ctx context.Context, teacherID, studentID uuid.UUID) error {
	if f.appendRosterErr != nil {
		if err := f.appendRosterErr(teacherID); err != nil {
			return err
		}
	}
	return f.Store.AppendRoster(ctx, teacherID, studentID)
}

func (f *faultyRecords) AppendHistory(ctx context.Context, studentID, borrowID uuid.UUID) error {
	if f.appendHistoryErr != nil {
		return f.appendHistoryErr
	}
	return f.Store.AppendHistory(ctx, studentID, borrowID)
}

func (f *faultyRecords) ReleaseBook(ctx context.Context, bookID, studentID uuid.UUID) (bool, error) {
	if f.releaseErr != nil {
		return false, f.releaseErr
	}
	return f.Store.ReleaseBook(ctx, bookID, studentID)
}

func (f *faultyRecords) RevertBorrow(ctx context.Context, id uuid.UUID, current, previous model.BorrowStatus) (bool, error) {
	if f.revertErr != nil {
		return false, f.revertErr
	}
	return f.Store.RevertBorrow(ctx, id, current, previous)
}

func (f *faultyRecords) DeleteStudent(ctx context.Context, id uuid.UUID) (*model.Student, error) {
	if f.deleteStudentErr != nil {
		return nil, f.deleteStudentErr
	}
	return f.Store.DeleteStudent(ctx, id)
}

func (f *faultyRecords) UpdateStudent(ctx context.Context, id uuid.UUID, patch model.StudentPatch) (*model.Student, error) {
	if f.updateStudentErr != nil {
		return nil, f.updateStudentErr
	}
	return f.Store.UpdateStudent(ctx, id, patch)
}

// recordingCache remembers invalidated tags.
type recordingCache struct {
	mu   sync.Mutex
	tags []string
}

func (r *recordingCache) InvalidateTags(_ context.Context, tags ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tags...)
}

func (r *recordingCache) Tags() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tags...)
}

func (r *recordingCache) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = nil
}

type fixture struct {
	store   *store.Store
	records *faultyRecords
	cache   *recordingCache
	manager *consistency.Manager
	logs    *observer.ObservedLogs
	clock   *testsupport.Clock
}

func newFixture(t *testing.T, opts ...consistency.Option) *fixture {
	t.Helper()

	s := testsupport.OpenStore(t)
	core, logs := observer.New(zapcore.DebugLevel)
	clock := testsupport.NewClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))

	f := &fixture{
		store:   s,
		records: &faultyRecords{Store: s},
		cache:   &recordingCache{},
		logs:    logs,
		clock:   clock,
	}
	base := []consistency.Option{
		consistency.WithLogger(zap.New(core)),
		consistency.WithClock(clock.Now),
		consistency.WithBcryptCost(bcrypt.MinCost),
	}
	f.manager = consistency.New(f.records, f.cache, append(base, opts...)...)
	return f
}

func (f *fixture) teacher(t *testing.T, email string) *model.Teacher {
	t.Helper()
	teacher, err := f.manager.CreateTeacher(context.Background(), model.TeacherInput{
		FirstName: "Ada", LastName: "Lovelace", Email: email,
	})
	require.NoError(t, err)
	return teacher
}

func (f *fixture) student(t *testing.T, email, teacherEmail string) *model.Student {
	t.Helper()
	student, err := f.manager.CreateStudent(context.Background(), model.StudentInput{
		FirstName: "Alan", LastName: "Turing", Email: email, TeacherEmail: teacherEmail,
	})
	require.NoError(t, err)
	return student
}

func (f *fixture) book(t *testing.T, isbn string) *model.Book {
	t.Helper()
	book, err := f.manager.CreateBook(context.Background(), model.BookInput{
		Title:           "Dune",
		Author:          "Frank Herbert",
		Publisher:       "Chilton",
		PublicationDate: time.Date(1965, 8, 1, 0, 0, 0, 0, time.UTC),
		ISBN:            isbn,
	})
	require.NoError(t, err)
	return book
}

func (f *fixture) borrow(t *testing.T, studentID, bookID uuid.UUID) *model.Borrow {
	t.Helper()
	borrow, err := f.manager.CreateBorrow(context.Background(), model.BorrowInput{
		StudentID: studentID, BookID: bookID,
	})
	require.NoError(t, err)
	return borrow
}

func borrowsOf(studentID uuid.UUID) store.BorrowFilter {
	return store.BorrowFilter{StudentID: &studentID}
}
