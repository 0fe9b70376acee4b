package consistency_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-library-records/cache"
	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

func TestBorrowLifecycle_ReturnReleasesBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.teacher(t, "a@x.com")
	s1 := f.student(t, "s1@x.com", "a@x.com")
	book := f.book(t, "1234567890")

	borrow := f.borrow(t, s1.ID, book.ID)
	assert.Equal(t, model.BorrowPending, borrow.Status)
	assert.Nil(t, borrow.ReturnDate)
	assert.True(t, borrow.BorrowDate.Equal(f.clock.Now()))

	held, err := f.store.FindBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookBorrowed, held.Status)
	require.NotNil(t, held.StudentID)
	assert.Equal(t, s1.ID, *held.StudentID)

	student, err := f.store.FindStudent(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{borrow.ID}, student.BorrowedBooks)

	f.clock.Advance(48 * time.Hour)
	f.cache.Reset()

	returned, err := f.manager.ReturnBorrow(ctx, borrow.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BorrowApproved, returned.Status)
	require.NotNil(t, returned.ReturnDate)
	assert.True(t, returned.ReturnDate.Equal(f.clock.Now()))

	available, err := f.store.FindBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookAvailable, available.Status)
	assert.Nil(t, available.StudentID)

	stored, err := f.store.FindBorrow(ctx, borrow.ID)
	require.NoError(t, err)
	assert.True(t, stored.Returned())

	tags := f.cache.Tags()
	assert.Contains(t, tags, cache.EntityTag(model.KindBorrow, borrow.ID))
	assert.Contains(t, tags, cache.EntityTag(model.KindBook, book.ID))
	assert.Contains(t, tags, cache.EntityTag(model.KindStudent, s1.ID))

	_, err = f.manager.ReturnBorrow(ctx, borrow.ID)
	assert.True(t, recorderr.HasReason(err, recorderr.ReasonAlreadyReturned), "got %v", err)

	student, err = f.store.FindStudent(ctx, s1.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{borrow.ID}, student.BorrowedBooks, "history keeps returned loans")
}

func TestCreateBook_DuplicateISBN(t *testing.T) {
	f := newFixture(t)
	f.book(t, "1234567890")

	_, err := f.manager.CreateBook(context.Background(), model.BookInput{
		Title: "Other", Author: "Someone", Publisher: "Press",
		PublicationDate: time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC),
		ISBN:            " 1234567890 ",
	})
	require.ErrorIs(t, err, recorderr.ErrConflict)
	assert.True(t, recorderr.HasReason(err, recorderr.ReasonDuplicateISBN))
}

func TestUpdateBook(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dune := f.book(t, "1234567890")
	other := f.book(t, "0987654321")

	title := "Dune Messiah"
	updated, err := f.manager.UpdateBook(ctx, dune.ID, model.BookPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "dune messiah", updated.Title)
	assert.Equal(t, model.BookAvailable, updated.Status)

	isbn := "1234567890"
	_, err = f.manager.UpdateBook(ctx, other.ID, model.BookPatch{ISBN: &isbn})
	assert.True(t, recorderr.HasReason(err, recorderr.ReasonDuplicateISBN), "got %v", err)
}

func TestCreateBorrow_Failures(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.teacher(t, "a@x.com")
	s1 := f.student(t, "s1@x.com", "a@x.com")
	s2 := f.student(t, "s2@x.com", "a@x.com")
	book := f.book(t, "1234567890")

	_, err := f.manager.CreateBorrow(ctx, model.BorrowInput{StudentID: uuid.New(), BookID: book.ID})
	assert.ErrorIs(t, err, recorderr.ErrNotFound)

	_, err = f.manager.CreateBorrow(ctx, model.BorrowInput{StudentID: s1.ID, BookID: uuid.New()})
	assert.ErrorIs(t, err, recorderr.ErrNotFound)

	f.borrow(t, s1.ID, book.ID)
	_, err = f.manager.CreateBorrow(ctx, model.BorrowInput{StudentID: s2.ID, BookID: book.ID})
	assert.True(t, recorderr.HasReason(err, recorderr.ReasonActiveLoan), "got %v", err)
}

func TestCreateBorrow_ConcurrentRequestsOneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.teacher(t, "a@x.com")
	book := f.book(t, "1234567890")

	const n = 6
	students := make([]*model.Student, n)
	for i := range students {
		students[i] = f.student(t, uuid.NewString()[:8]+"@x.com", "a@x.com")
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for _, s := range students {
		wg.Add(1)
		go func(studentID uuid.UUID) {
			defer wg.Done()
			_, err := f.manager.CreateBorrow(ctx, model.BorrowInput{StudentID: studentID, BookID: book.ID})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case recorderr.HasReason(err, recorderr.ReasonActiveLoan):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(s.ID)
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, n-1, conflicts)

	got, err := f.store.FindBook(ctx, book.ID)
	require.NoError(t, err)
	assert.True(t, got.Consistent())
	assert.Equal(t, model.BookBorrowed, got.Status)
}

func TestCreateBorrow_HistoryFailureUndoesLoan(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.teacher(t, "a@x.com")
	s1 := f.student(t, "s1@x.com", "a@x.com")
	book := f.book(t, "1234567890")
	f.records.appendHistoryErr = errInjected

	_, err := f.manager.CreateBorrow(ctx, model.BorrowInput{StudentID: s1.ID, BookID: book.ID})
	require.ErrorIs(t, err, errInjected)

	got, err := f.store.FindBook(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookAvailable, got.Status)
	assert.Nil(t, got.StudentID)

	borrowed, err := f.store.ListBorrows(ctx, borrowsOf(s1.ID))
	require.NoError(t, err)
	assert.Empty(t, borrowed)

	f.records.appendHistoryErr = nil
	f.borrow(t, s1.ID, book.ID)
}

func TestApproveAndReject(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.teacher(t, "a@x.com")
	s1 := f.student(t, "s1@x.com", "a@x.com")
	dune := f.book(t, "1234567890")
	solaris := f.book(t, "0987654321")

	approved := f.borrow(t, s1.ID, dune.ID)
	got, err := f.manager.ApproveBorrow(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BorrowApproved, got.Status)

	book, err := f.store.FindBook(ctx, dune.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookBorrowed, book.Status, "approval keeps the book with the student")

	_, err = f.manager.ApproveBorrow(ctx, approved.ID)
	assert.True(t, recorderr.HasReason(err, recorderr.ReasonInvalidTransition), "got %v", err)

	rejected := f.borrow(t, s1.ID, solaris.ID)
	got, err = f.manager.RejectBorrow(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BorrowRejected, got.Status)

	book, err = f.store.FindBook(ctx, solaris.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookAvailable, book.Status)
	assert.Nil(t, book.StudentID)

	_, err = f.manager.ReturnBorrow(ctx, rejected.ID)
	assert.True(t, recorderr.HasReason(err, recorderr.ReasonInvalidTransition), "got %v", err)

	_, err = f.manager.ApproveBorrow(ctx, rejected.ID)
	assert.True(t, recorderr.HasReason(err, recorderr.ReasonInvalidTransition), "got %v", err)

	returned, err := f.manager.ReturnBorrow(ctx, approved.ID)
	require.NoError(t, err)
	_, err = f.manager.RejectBorrow(ctx, returned.ID)
	assert.True(t, recorderr.HasReason(err, recorderr.ReasonAlreadyReturned), "got %v", err)

	_, err = f.manager.ApproveBorrow(ctx, uuid.New())
	assert.ErrorIs(t, err, recorderr.ErrNotFound)
}

func TestReturnBorrow_ReleaseFailureRevertsBorrow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.teacher(t, "a@x.com")
	s1 := f.student(t, "s1@x.com", "a@x.com")
	book := f.book(t, "1234567890")
	borrow := f.borrow(t, s1.ID, book.ID)

	f.records.releaseErr = errInjected
	_, err := f.manager.ReturnBorrow(ctx, borrow.ID)
	require.ErrorIs(t, err, errInjected)

	stored, err := f.store.FindBorrow(ctx, borrow.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BorrowPending, stored.Status)
	assert.Nil(t, stored.ReturnDate)
	assert.Equal(t, 1, f.logs.FilterMessage("compensated partial write").Len())

	f.records.releaseErr = nil
	_, err = f.manager.ReturnBorrow(ctx, borrow.ID)
	require.NoError(t, err)
}

func TestReturnBorrow_FailedRevertIsLogged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.teacher(t, "a@x.com")
	s1 := f.student(t, "s1@x.com", "a@x.com")
	book := f.book(t, "1234567890")
	borrow := f.borrow(t, s1.ID, book.ID)

	f.records.releaseErr = errInjected
	f.records.revertErr = errInjected
	_, err := f.manager.ReturnBorrow(ctx, borrow.ID)
	require.Error(t, err)

	entries := f.logs.FilterMessage("compensation failed, records need repair").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "return borrow", fields["op"])
	assert.Equal(t, borrow.ID.String(), fields["borrow_id"])
	assert.Equal(t, book.ID.String(), fields["book_id"])
}
