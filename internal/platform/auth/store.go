package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"robostock-backend/internal/platform/db"
)

type Account struct {
	ID           string
	PasswordHash string
	Role         string
	DisplayName  string
	Email        sql.NullString
	IsDisabled   bool
	CreatedAt    time.Time
}

type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	List(ctx context.Context) ([]Account, error)
	Create(ctx context.Context, a *Account) error
	UpdateRole(ctx context.Context, id, role string) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type Store struct{ db db.DBTX }

func NewStore(conn db.DBTX) AccountStore {
	return &Store{db: conn}
}

const accountColumns = `id, password_hash, role, display_name, email, is_disabled, created_at`

func scanAccount(sc interface{ Scan(...any) error }) (*Account, error) {
	var a Account
	var isDisabledInt int
	if err := sc.Scan(&a.ID, &a.PasswordHash, &a.Role, &a.DisplayName, &a.Email, &isDisabledInt, &a.CreatedAt); err != nil {
		return nil, err
	}
	a.IsDisabled = isDisabledInt != 0
	return &a, nil
}

// GetByID returns (nil, nil) when the account does not exist.
func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM auth_accounts WHERE id = ? LIMIT 1`
	a, err := scanAccount(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) List(ctx context.Context) ([]Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM auth_accounts ORDER BY id`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Account{}
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
INSERT INTO auth_accounts (id, password_hash, role, display_name, email, is_disabled, created_at)
VALUES (?, ?, ?, ?, ?, 0, ?)
`
	_, err := s.db.ExecContext(ctx, q, a.ID, a.PasswordHash, a.Role, a.DisplayName, a.Email, a.CreatedAt)
	return err
}

func (s *Store) UpdateRole(ctx context.Context, id, role string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE auth_accounts SET role = ? WHERE id = ?`, role, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes the account. Foreign keys null out transactions.authorized_by,
// transactions.returned_by, beneficiaries.added_by and unlink the beneficiary.
func (s *Store) Delete(ctx context.Context, id string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM auth_accounts WHERE id = ?`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
