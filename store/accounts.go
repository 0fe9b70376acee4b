package store

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"

	"github.com/goliatone/go-library-records/model"
	"github.com/goliatone/go-library-records/recorderr"
)

// FindAccount returns the account with id.
func (s *Store) FindAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	return s.findAccount(ctx, recorderr.NotFound(model.KindAccount, id), where("id", id))
}

// FindAccountByEmail returns the account with the normalised email.
func (s *Store) FindAccountByEmail(ctx context.Context, email string) (*model.Account, error) {
	email = model.Normalize(email)
	return s.findAccount(ctx, &recorderr.NotFoundError{Kind: model.KindAccount, ID: "email:" + email}, where("email", email))
}

func (s *Store) findAccount(ctx context.Context, notFound error, criteria ...repository.SelectCriteria) (*model.Account, error) {
	records, _, err := s.accounts.List(ctx, append(criteria, limit(1))...)
	if err != nil {
		return nil, recorderr.Unavailable("find account", err)
	}
	account, ok := firstOf(records)
	if !ok {
		return nil, notFound
	}
	return account, nil
}

// ListAccounts returns every account, newest first.
func (s *Store) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	records, _, err := s.accounts.List(ctx, orderBy("created_at DESC"), orderBy("id ASC"))
	if err != nil {
		return nil, recorderr.Unavailable("list accounts", err)
	}
	return records, nil
}

// InsertAccount persists a new account.
func (s *Store) InsertAccount(ctx context.Context, a *model.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := s.timestamp()
	a.CreatedAt, a.UpdatedAt = now, now

	if _, err := s.accounts.Create(ctx, a); err != nil {
		if violatesIndex(err, "email") {
			return recorderr.Conflict(recorderr.ReasonDuplicateEmail, model.KindAccount, a.Email)
		}
		return recorderr.Unavailable("insert account", err)
	}
	return nil
}

// UpdateAccount applies patch to the account with id.
func (s *Store) UpdateAccount(ctx context.Context, id uuid.UUID, patch model.AccountPatch) (*model.Account, error) {
	account, err := s.FindAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	cols := patch.Apply(account)
	if len(cols) == 0 {
		return account, nil
	}
	account.UpdatedAt = s.timestamp()

	res, err := s.db.NewUpdate().
		Model(account).
		Column(append(cols, "updated_at")...).
		WherePK().
		Exec(ctx)
	if err != nil {
		return nil, recorderr.Unavailable("update account", err)
	}
	if !affected(res) {
		return nil, recorderr.NotFound(model.KindAccount, id)
	}
	return account, nil
}

// ConsumeAccountToken marks the account verified if token matches its
// pending verification token. The token can be used once.
func (s *Store) ConsumeAccountToken(ctx context.Context, id uuid.UUID, token string) (bool, error) {
	res, err := s.db.NewUpdate().
		Model((*model.Account)(nil)).
		Set("verified = ?", true).
		Set("token = NULL").
		Set("updated_at = ?", s.timestamp()).
		Where("id = ?", id).
		Where("token = ?", token).
		Where("verified = ?", false).
		Exec(ctx)
	if err != nil {
		return false, recorderr.Unavailable("consume account token", err)
	}
	return affected(res), nil
}

// DeleteAccount removes the account with id and returns it.
func (s *Store) DeleteAccount(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	account, err := s.FindAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Delete(ctx, account); err != nil {
		return nil, recorderr.Unavailable("delete account", err)
	}
	return account, nil
}
