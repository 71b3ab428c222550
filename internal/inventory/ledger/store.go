package ledger

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"robostock-backend/internal/platform/apperr"
	"robostock-backend/internal/platform/db"
)

// Store is the ledger's persistence. Writes go through InTx so that a
// checkout or return either applies completely or not at all.
type Store interface {
	InTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error

	GetByID(ctx context.Context, id int64) (*Transaction, error)
	GetByULID(ctx context.Context, u string) (*Transaction, error)
	ComponentExists(ctx context.Context, id int64) (bool, error)
	BeneficiaryExists(ctx context.Context, id int64) (bool, error)
	ListOpenForComponent(ctx context.Context, componentID int64) ([]Transaction, error)
	ListForBeneficiary(ctx context.Context, beneficiaryID int64, f Filter) ([]Transaction, error)
}

// UnitOfWork is the set of row operations available inside one DB transaction.
type UnitOfWork interface {
	// LockComponent locks the component row and returns its quantity.
	LockComponent(ctx context.Context, componentID int64) (int, error)
	BeneficiaryExists(ctx context.Context, beneficiaryID int64) (bool, error)
	// TakeStock decrements quantity only if enough is left; false means it was not.
	TakeStock(ctx context.Context, componentID int64, qty int, at time.Time) (bool, error)
	RestoreStock(ctx context.Context, componentID int64, qty int, at time.Time) error
	InsertTransaction(ctx context.Context, t *Transaction) error
	// LockTransaction locks the transaction row; only ID, ComponentID,
	// QuantityTaken and ReturnTime are filled.
	LockTransaction(ctx context.Context, id int64) (*Transaction, error)
	// MarkReturned closes an open transaction; false means it was already closed.
	MarkReturned(ctx context.Context, id int64, at time.Time, by string) (bool, error)
}

// ===== MySQL =====

// Constraint names from schema.sql.
const (
	fkComponent    = "fk_transactions_component"
	fkBeneficiary  = "fk_transactions_beneficiary"
	fkAuthorizedBy = "fk_transactions_authorized_by"
	fkReturnedBy   = "fk_transactions_returned_by"
)

var errAccountGone = apperr.Unauthorized("account no longer exists")

type MySQLStore struct{ db *sql.DB }

func NewStore(conn *sql.DB) *MySQLStore { return &MySQLStore{db: conn} }

func (s *MySQLStore) InTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	return db.RunInTx(ctx, s.db, nil, func(ctx context.Context, tx db.DBTX) error {
		return fn(ctx, &txStore{tx: tx})
	})
}

const transactionSelect = `
SELECT t.transaction_id, t.transaction_ulid, t.component_id, c.name, t.beneficiary_id, b.name,
       t.authorized_by, t.returned_by, t.checkout_time, t.return_time, t.quantity_taken, t.note
FROM transactions t
JOIN components c ON c.component_id = t.component_id
JOIN beneficiaries b ON b.beneficiary_id = t.beneficiary_id`

func scanTransaction(sc interface{ Scan(...any) error }) (*Transaction, error) {
	var t Transaction
	if err := sc.Scan(&t.ID, &t.ULID, &t.ComponentID, &t.ComponentName, &t.BeneficiaryID, &t.BeneficiaryName,
		&t.AuthorizedBy, &t.ReturnedBy, &t.CheckoutTime, &t.ReturnTime, &t.QuantityTaken, &t.Note); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *MySQLStore) getOne(ctx context.Context, where string, arg any) (*Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, transactionSelect+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("transaction not found")
	}
	return t, err
}

func (s *MySQLStore) GetByID(ctx context.Context, id int64) (*Transaction, error) {
	return s.getOne(ctx, ` WHERE t.transaction_id = ?`, id)
}

func (s *MySQLStore) GetByULID(ctx context.Context, u string) (*Transaction, error) {
	return s.getOne(ctx, ` WHERE t.transaction_ulid = ?`, u)
}

func (s *MySQLStore) ComponentExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, s.db, `SELECT 1 FROM components WHERE component_id = ?`, id)
}

func (s *MySQLStore) BeneficiaryExists(ctx context.Context, id int64) (bool, error) {
	return exists(ctx, s.db, `SELECT 1 FROM beneficiaries WHERE beneficiary_id = ?`, id)
}

func (s *MySQLStore) ListOpenForComponent(ctx context.Context, componentID int64) ([]Transaction, error) {
	q := transactionSelect + ` WHERE t.component_id = ? AND t.return_time IS NULL ORDER BY t.checkout_time, t.transaction_id`
	return s.list(ctx, q, componentID)
}

func (s *MySQLStore) ListForBeneficiary(ctx context.Context, beneficiaryID int64, f Filter) ([]Transaction, error) {
	q := transactionSelect + ` WHERE t.beneficiary_id = ?`
	args := []any{beneficiaryID}
	if f.Status != nil {
		if *f.Status == StatusOpen {
			q += ` AND t.return_time IS NULL`
		} else {
			q += ` AND t.return_time IS NOT NULL`
		}
	}
	q += ` ORDER BY t.checkout_time DESC, t.transaction_id DESC`
	if f.Limit > 0 {
		q += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, max(f.Offset, 0))
	}
	return s.list(ctx, q, args...)
}

func (s *MySQLStore) list(ctx context.Context, q string, args ...any) ([]Transaction, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func exists(ctx context.Context, q db.DBTX, query string, id int64) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, query, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// ---- Transactional Methods ----

type txStore struct{ tx db.DBTX }

func (s *txStore) LockComponent(ctx context.Context, componentID int64) (int, error) {
	const q = `SELECT quantity FROM components WHERE component_id = ? FOR UPDATE`
	var qty int
	if err := s.tx.QueryRowContext(ctx, q, componentID).Scan(&qty); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, apperr.NotFound("component not found")
		}
		return 0, err
	}
	return qty, nil
}

func (s *txStore) BeneficiaryExists(ctx context.Context, beneficiaryID int64) (bool, error) {
	return exists(ctx, s.tx, `SELECT 1 FROM beneficiaries WHERE beneficiary_id = ?`, beneficiaryID)
}

func (s *txStore) TakeStock(ctx context.Context, componentID int64, qty int, at time.Time) (bool, error) {
	const q = `
	UPDATE components
	SET quantity = quantity - ?, last_updated = ?
	WHERE component_id = ? AND quantity >= ?`
	res, err := s.tx.ExecContext(ctx, q, qty, at, componentID, qty)
	if err != nil {
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}

func (s *txStore) RestoreStock(ctx context.Context, componentID int64, qty int, at time.Time) error {
	const q = `UPDATE components SET quantity = quantity + ?, last_updated = ? WHERE component_id = ?`
	res, err := s.tx.ExecContext(ctx, q, qty, at, componentID)
	if err != nil {
		return err
	}
	if aff, _ := res.RowsAffected(); aff != 1 {
		return apperr.Internal("failed to update components.quantity")
	}
	return nil
}

func (s *txStore) InsertTransaction(ctx context.Context, t *Transaction) error {
	const q = `
	INSERT INTO transactions
	(transaction_ulid, component_id, beneficiary_id, authorized_by, checkout_time, quantity_taken, note)
	VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := s.tx.ExecContext(ctx, q,
		t.ULID, t.ComponentID, t.BeneficiaryID, t.AuthorizedBy, t.CheckoutTime, t.QuantityTaken, t.Note)
	if err != nil {
		switch db.ForeignKey(err) {
		case fkComponent:
			return apperr.NotFound("component not found")
		case fkBeneficiary:
			return apperr.NotFound("beneficiary not found")
		case fkAuthorizedBy:
			return errAccountGone
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func (s *txStore) LockTransaction(ctx context.Context, id int64) (*Transaction, error) {
	const q = `
	SELECT transaction_id, component_id, quantity_taken, return_time
	FROM transactions WHERE transaction_id = ? FOR UPDATE`
	var t Transaction
	if err := s.tx.QueryRowContext(ctx, q, id).Scan(&t.ID, &t.ComponentID, &t.QuantityTaken, &t.ReturnTime); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.NotFound("transaction not found")
		}
		return nil, err
	}
	return &t, nil
}

func (s *txStore) MarkReturned(ctx context.Context, id int64, at time.Time, by string) (bool, error) {
	const q = `
	UPDATE transactions
	SET return_time = ?, returned_by = ?
	WHERE transaction_id = ? AND return_time IS NULL`
	var returnedBy sql.NullString
	if by != "" {
		returnedBy = sql.NullString{String: by, Valid: true}
	}
	res, err := s.tx.ExecContext(ctx, q, at, returnedBy, id)
	if err != nil {
		if db.ForeignKey(err) == fkReturnedBy {
			return false, errAccountGone
		}
		return false, err
	}
	aff, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return aff == 1, nil
}
