package beneficiaries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"robostock-backend/internal/platform/apperr"
	"robostock-backend/internal/platform/db"
)

// Repository is the persistence the service needs; Store is the MySQL one.
type Repository interface {
	Insert(ctx context.Context, b *Beneficiary) error
	Update(ctx context.Context, b *Beneficiary) (int64, error)
	GetByID(ctx context.Context, id int64) (*Beneficiary, error)
	GetByAccount(ctx context.Context, accountID string) (*Beneficiary, error)
	List(ctx context.Context, f Filter, p Page) ([]Beneficiary, int64, error)
	CountTransactions(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) (int64, error)
}

type Store struct{ db db.DBTX }

func NewStore(conn db.DBTX) *Store { return &Store{db: conn} }

const beneficiaryColumns = `beneficiary_id, category, employee_id, stream, student_id, account_id,
	name, phone_number, email, middle_name, designation, added_by`

func scanBeneficiary(sc interface{ Scan(...any) error }) (*Beneficiary, error) {
	var b Beneficiary
	var cat string
	if err := sc.Scan(&b.ID, &cat, &b.EmployeeID, &b.Stream, &b.StudentID, &b.AccountID,
		&b.Name, &b.PhoneNumber, &b.Email, &b.MiddleName, &b.Designation, &b.AddedBy); err != nil {
		return nil, err
	}
	b.Category = Category(cat)
	return &b, nil
}

func (s *Store) Insert(ctx context.Context, b *Beneficiary) error {
	const q = `
	INSERT INTO beneficiaries
	(category, employee_id, stream, student_id, account_id, name, phone_number, email, middle_name, designation, added_by)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		string(b.Category), b.EmployeeID, b.Stream, b.StudentID, b.AccountID,
		b.Name, b.PhoneNumber, b.Email, b.MiddleName, b.Designation, b.AddedBy,
	)
	if err != nil {
		switch db.ForeignKey(err) {
		case "fk_beneficiaries_account", "fk_beneficiaries_added_by":
			return apperr.Unauthorized("account no longer exists")
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = id
	return nil
}

// Update rewrites the editable columns; account_id and added_by are kept.
func (s *Store) Update(ctx context.Context, b *Beneficiary) (int64, error) {
	const q = `
	UPDATE beneficiaries
	SET category = ?, employee_id = ?, stream = ?, student_id = ?, name = ?,
	    phone_number = ?, email = ?, middle_name = ?, designation = ?
	WHERE beneficiary_id = ?`
	res, err := s.db.ExecContext(ctx, q,
		string(b.Category), b.EmployeeID, b.Stream, b.StudentID, b.Name,
		b.PhoneNumber, b.Email, b.MiddleName, b.Designation, b.ID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Beneficiary, error) {
	q := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE beneficiary_id = ?`
	b, err := scanBeneficiary(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("beneficiary not found")
	}
	return b, err
}

// GetByAccount returns (nil, nil) when the account has no beneficiary yet.
func (s *Store) GetByAccount(ctx context.Context, accountID string) (*Beneficiary, error) {
	q := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries WHERE account_id = ?`
	b, err := scanBeneficiary(s.db.QueryRowContext(ctx, q, accountID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return b, err
}

func (s *Store) List(ctx context.Context, f Filter, p Page) ([]Beneficiary, int64, error) {
	var (
		wheres []string
		args   []any
	)
	if q := strings.TrimSpace(f.Query); q != "" {
		like := "%" + q + "%"
		wheres = append(wheres, "(name LIKE ? OR employee_id LIKE ? OR student_id LIKE ? OR email LIKE ?)")
		args = append(args, like, like, like, like)
	}
	if f.Category != nil {
		wheres = append(wheres, "category = ?")
		args = append(args, string(*f.Category))
	}
	where := ""
	if len(wheres) > 0 {
		where = " WHERE " + strings.Join(wheres, " AND ")
	}

	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	q := `SELECT ` + beneficiaryColumns + ` FROM beneficiaries` + where + ` ORDER BY name, beneficiary_id LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, q, append(append([]any{}, args...), p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Beneficiary{}
	for rows.Next() {
		b, err := scanBeneficiary(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM beneficiaries`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count beneficiaries: %w", err)
	}
	return out, total, nil
}

func (s *Store) CountTransactions(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE beneficiary_id = ?`, id).Scan(&n)
	return n, err
}

func (s *Store) Delete(ctx context.Context, id int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM beneficiaries WHERE beneficiary_id = ?`, id)
	if err != nil {
		if db.IsMySQLError(err, db.ErRowIsReferenced) {
			return 0, apperr.HasTransactions("beneficiary has transactions and cannot be deleted")
		}
		return 0, err
	}
	return res.RowsAffected()
}
