package consistency

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
	"github.com/goliatone/go-library-records/store"
)

// RegisterAccount creates an account with a hashed password and a
// single-use verification token, then the teacher or student profile its
// role calls for. The account is removed again if the profile cannot be
// created. The notifier runs last and its failure is only logged.
func (m *Manager) RegisterAccount(ctx context.Context, in model.AccountInput) (*model.Account, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, recorderr.InvalidInput(model.KindAccount, err)
	}

	if err := emailTaken(ctx, model.KindAccount, in.Email, m.records.FindAccountByEmail); err != nil {
		return nil, err
	}
	switch in.Role {
	case model.RoleTeacher:
		if err := emailTaken(ctx, model.KindTeacher, in.Email, m.records.FindTeacherByEmail); err != nil {
			return nil, err
		}
	case model.RoleStudent:
		if err := emailTaken(ctx, model.KindStudent, in.Email, m.records.FindStudentByEmail); err != nil {
			return nil, err
		}
		if _, err := m.records.FindTeacherByEmail(ctx, in.TeacherEmail); err != nil {
			return nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), m.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	token := uuid.NewString()

	account := &model.Account{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
		Token:        &token,
	}
	if err := m.records.InsertAccount(ctx, account); err != nil {
		return nil, err
	}

	if err := m.createProfile(ctx, account, in); err != nil {
		m.compensate(ctx, "register account", err, func(ctx context.Context) error {
			_, err := m.records.DeleteAccount(ctx, account.ID)
			return err
		}, idField("account_id", account.ID))
		return nil, err
	}

	if err := m.notifier.AccountCreated(ctx, account, token); err != nil {
		m.logger.Warn("account notification failed",
			idField("account_id", account.ID),
			zap.Error(err))
	}
	return account, nil
}

func (m *Manager) createProfile(ctx context.Context, account *model.Account, in model.AccountInput) error {
	var err error
	switch account.Role {
	case model.RoleTeacher:
		_, err = m.CreateTeacher(ctx, model.TeacherInput{
			FirstName: in.FirstName,
			LastName:  in.LastName,
			Email:     in.Email,
			AccountID: &account.ID,
		})
	case model.RoleStudent:
		_, err = m.CreateStudent(ctx, model.StudentInput{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Email:        in.Email,
			TeacherEmail: in.TeacherEmail,
			AccountID:    &account.ID,
		})
	}
	return err
}

// VerifyAccount consumes the account's verification token. A wrong or
// already used token fails with Conflict(TokenMismatch).
func (m *Manager) VerifyAccount(ctx context.Context, id uuid.UUID, token string) (*model.Account, error) {
	if _, err := m.records.FindAccount(ctx, id); err != nil {
		return nil, err
	}
	ok, err := m.records.ConsumeAccountToken(ctx, id, token)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, recorderr.Conflict(recorderr.ReasonTokenMismatch, model.KindAccount, id.String())
	}
	return m.records.FindAccount(ctx, id)
}

// UpdateAccount renames the account with id and carries the new names to
// the profile it owns. The account keeps its old names if the profile
// cannot be renamed.
func (m *Manager) UpdateAccount(ctx context.Context, id uuid.UUID, patch model.AccountPatch) (*model.Account, error) {
	patch = patch.Normalize()
	if err := patch.Validate(); err != nil {
		return nil, recorderr.InvalidInput(model.KindAccount, err)
	}

	before, err := m.records.FindAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	account, err := m.records.UpdateAccount(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	if err := m.renameProfiles(ctx, id, patch); err != nil {
		m.compensate(ctx, "update account", err, func(ctx context.Context) error {
			_, err := m.records.UpdateAccount(ctx, id, model.AccountPatch{
				FirstName: &before.FirstName,
				LastName:  &before.LastName,
			})
			return err
		}, idField("account_id", id))
		return nil, err
	}

	m.logger.Debug("account updated", idField("account_id", id))
	return account, nil
}

func (m *Manager) renameProfiles(ctx context.Context, accountID uuid.UUID, patch model.AccountPatch) error {
	students, err := m.records.ListStudents(ctx, store.StudentFilter{AccountID: &accountID})
	if err != nil {
		return err
	}
	for _, s := range students {
		if _, err := m.records.UpdateStudent(ctx, s.ID, model.StudentPatch{
			FirstName: patch.FirstName,
			LastName:  patch.LastName,
		}); err != nil {
			return err
		}
		m.invalidate(ctx, ref{model.KindStudent, s.ID})
	}

	teachers, err := m.records.ListTeachers(ctx, store.TeacherFilter{AccountID: &accountID})
	if err != nil {
		return err
	}
	for _, t := range teachers {
		if _, err := m.records.UpdateTeacher(ctx, t.ID, model.TeacherPatch{
			FirstName: patch.FirstName,
			LastName:  patch.LastName,
		}); err != nil {
			return err
		}
		m.invalidate(ctx, ref{model.KindTeacher, t.ID})
	}
	return nil
}

// Authenticate checks a password against the account with email. It
// returns NotFound for both an unknown email and a wrong password, and
// Conflict(Unverified) for a correct password on an account that has not
// been verified.
func (m *Manager) Authenticate(ctx context.Context, email, password string) (*model.Account, error) {
	account, err := m.records.FindAccountByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, &recorderr.NotFoundError{Kind: model.KindAccount, ID: "email:" + model.Normalize(email)}
	}
	if !account.Verified {
		return nil, recorderr.Conflict(recorderr.ReasonUnverified, model.KindAccount, account.ID.String())
	}
	return account, nil
}
