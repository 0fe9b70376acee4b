package consistency

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/store"
)

// Records is the record store as seen by the manager. *store.Store
// implements it.
type Records interface {
	FindBook(ctx context.Context, id uuid.UUID) (*model.Book, error)
	FindBookByISBN(ctx context.Context, isbn string) (*model.Book, error)
	InsertBook(ctx context.Context, b *model.Book) error
	UpdateBook(ctx context.Context, id uuid.UUID, patch model.BookPatch) (*model.Book, error)
	ReserveBook(ctx context.Context, bookID, studentID uuid.UUID) error
	ReleaseBook(ctx context.Context, bookID, studentID uuid.UUID) (bool, error)
	DeleteBook(ctx context.Context, id uuid.UUID) (*model.Book, error)

	FindStudent(ctx context.Context, id uuid.UUID) (*model.Student, error)
	FindStudentByEmail(ctx context.Context, email string) (*model.Student, error)
	ListStudents(ctx context.Context, f store.StudentFilter) ([]*model.Student, error)
	InsertStudent(ctx context.Context, s *model.Student) error
	UpdateStudent(ctx context.Context, id uuid.UUID, patch model.StudentPatch) (*model.Student, error)
	SetStudentTeacher(ctx context.Context, id, from, to uuid.UUID) (bool, error)
	DeleteStudent(ctx context.Context, id uuid.UUID) (*model.Student, error)

	FindTeacher(ctx context.Context, id uuid.UUID) (*model.Teacher, error)
	FindTeacherByEmail(ctx context.Context, email string) (*model.Teacher, error)
	ListTeachers(ctx context.Context, f store.TeacherFilter) ([]*model.Teacher, error)
	InsertTeacher(ctx context.Context, t *model.Teacher) error
	UpdateTeacher(ctx context.Context, id uuid.UUID, patch model.TeacherPatch) (*model.Teacher, error)
	DeleteTeacher(ctx context.Context, id uuid.UUID) (*model.Teacher, error)

	AppendRoster(ctx context.Context, teacherID, studentID uuid.UUID) error
	RemoveRoster(ctx context.Context, teacherID, studentID uuid.UUID) (bool, error)
	AppendHistory(ctx context.Context, studentID, borrowID uuid.UUID) error
	RemoveHistory(ctx context.Context, studentID, borrowID uuid.UUID) (bool, error)

	FindBorrow(ctx context.Context, id uuid.UUID) (*model.Borrow, error)
	ListBorrows(ctx context.Context, f store.BorrowFilter) ([]*model.Borrow, error)
	InsertBorrow(ctx context.Context, b *model.Borrow) error
	TransitionBorrow(ctx context.Context, id uuid.UUID, from []model.BorrowStatus, to model.BorrowStatus, returnDate *time.Time) (bool, error)
	RevertBorrow(ctx context.Context, id uuid.UUID, current, previous model.BorrowStatus) (bool, error)
	DeleteBorrow(ctx context.Context, id uuid.UUID) (*model.Borrow, error)

	FindAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*model.Account, error)
	InsertAccount(ctx context.Context, a *model.Account) error
	UpdateAccount(ctx context.Context, id uuid.UUID, patch model.AccountPatch) (*model.Account, error)
	ConsumeAccountToken(ctx context.Context, id uuid.UUID, token string) (bool, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

var _ Records = (*store.Store)(nil)

// Invalidator drops cached views by tag. *cache.Layer implements it.
type Invalidator interface {
	InvalidateTags(ctx context.Context, tags ...string)
}

// Notifier is told about completed registrations, for example to send the
// verification token by email.
type Notifier interface {
	AccountCreated(ctx context.Context, account *model.Account, token string) error
}

// LogNotifier writes notifications to a logger instead of delivering them.
// The verification token itself is only logged at debug level.
type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) AccountCreated(_ context.Context, account *model.Account, token string) error {
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("account created",
		zap.String("account_id", account.ID.String()),
		zap.String("email", account.Email),
		zap.String("role", string(account.Role)),
		zap.Bool("verification_pending", token != ""))
	logger.Debug("verification token issued",
		zap.String("account_id", account.ID.String()),
		zap.String("verification_token", token))
	return nil
}
