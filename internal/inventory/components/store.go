package components

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"robostock-backend/internal/platform/apperr"
	"robostock-backend/internal/platform/db"
)

type Repository interface {
	InsertCategory(ctx context.Context, c *Category) error
	ListCategories(ctx context.Context) ([]Category, error)

	Insert(ctx context.Context, c *Component) error
	GetByID(ctx context.Context, id int64) (*Component, error)
	List(ctx context.Context, query string, p Page) ([]Component, int64, error)
	Update(ctx context.Context, id int64, p Patch, now time.Time) error
	CountTransactions(ctx context.Context, id int64) (int64, error)
	Delete(ctx context.Context, id int64) error
}

type Store struct{ db db.DBTX }

func NewStore(conn db.DBTX) *Store { return &Store{db: conn} }

// ===== categories =====

func (s *Store) InsertCategory(ctx context.Context, c *Category) error {
	res, err := s.db.ExecContext(ctx, `INSERT INTO categories (name, description) VALUES (?, ?)`, c.Name, c.Description)
	if err != nil {
		if db.IsMySQLError(err, db.ErDupEntry) {
			return apperr.Conflict("category name already exists")
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT category_id, name, description FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ===== components =====

const componentSelect = `
SELECT c.component_id, c.serial_number, c.name, c.category_id, cat.name, c.description,
       c.box_number, c.datasheet_link, c.quantity, c.location, c.last_updated
FROM components c
JOIN categories cat ON cat.category_id = c.category_id`

func scanComponent(sc interface{ Scan(...any) error }) (*Component, error) {
	var c Component
	if err := sc.Scan(&c.ID, &c.SerialNumber, &c.Name, &c.CategoryID, &c.CategoryName, &c.Description,
		&c.BoxNumber, &c.DatasheetLink, &c.Quantity, &c.Location, &c.LastUpdated); err != nil {
		return nil, err
	}
	return &c, nil
}

// translate maps constraint violations on components to domain errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case db.IsMySQLError(err, db.ErDupEntry):
		return apperr.Conflict("serial_number already exists")
	case db.IsMySQLError(err, db.ErNoReferencedRow):
		return apperr.Invalid("unknown category_id")
	case db.IsMySQLError(err, db.ErRowIsReferenced):
		return apperr.HasTransactions("component has transactions and cannot be deleted")
	}
	return err
}

func (s *Store) Insert(ctx context.Context, c *Component) error {
	const q = `
	INSERT INTO components
	(serial_number, name, category_id, description, box_number, datasheet_link, quantity, location, last_updated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		c.SerialNumber, c.Name, c.CategoryID, c.Description, c.BoxNumber,
		c.DatasheetLink, c.Quantity, c.Location, c.LastUpdated,
	)
	if err != nil {
		return translate(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = id
	return nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*Component, error) {
	c, err := scanComponent(s.db.QueryRowContext(ctx, componentSelect+` WHERE c.component_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("component not found")
	}
	return c, err
}

// List searches name, description, category name, serial number and box number.
// A non-positive limit returns every match.
func (s *Store) List(ctx context.Context, query string, p Page) ([]Component, int64, error) {
	where := ""
	var args []any
	if q := strings.TrimSpace(query); q != "" {
		like := "%" + q + "%"
		where = ` WHERE (c.name LIKE ? OR c.description LIKE ? OR cat.name LIKE ? OR c.serial_number LIKE ? OR c.box_number LIKE ?)`
		args = append(args, like, like, like, like, like)
	}

	q := componentSelect + where + ` ORDER BY c.name, c.component_id`
	qargs := append([]any{}, args...)
	if p.Limit > 0 {
		if p.Offset < 0 {
			p.Offset = 0
		}
		q += ` LIMIT ? OFFSET ?`
		qargs = append(qargs, p.Limit, p.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, qargs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []Component{}
	for rows.Next() {
		c, err := scanComponent(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int64
	countQ := `SELECT COUNT(*) FROM components c JOIN categories cat ON cat.category_id = c.category_id` + where
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count components: %w", err)
	}
	return out, total, nil
}

func (s *Store) Update(ctx context.Context, id int64, p Patch, now time.Time) error {
	sets := []string{"last_updated = ?"}
	args := []any{now}
	if p.SerialNumber != nil {
		sets = append(sets, "serial_number = ?")
		args = append(args, *p.SerialNumber)
	}
	if p.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *p.Name)
	}
	if p.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *p.CategoryID)
	}
	if p.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *p.Description)
	}
	if p.BoxNumber != nil {
		sets = append(sets, "box_number = ?")
		if *p.BoxNumber == "" {
			args = append(args, nil)
		} else {
			args = append(args, *p.BoxNumber)
		}
	}
	if p.DatasheetLink != nil {
		sets = append(sets, "datasheet_link = ?")
		args = append(args, *p.DatasheetLink)
	}
	if p.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *p.Quantity)
	}
	if p.Location != nil {
		sets = append(sets, "location = ?")
		args = append(args, *p.Location)
	}

	args = append(args, id)
	q := fmt.Sprintf(`UPDATE components SET %s WHERE component_id = ?`, strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return translate(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return apperr.NotFound("component not found")
	}
	return nil
}

func (s *Store) CountTransactions(ctx context.Context, id int64) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions WHERE component_id = ?`, id).Scan(&n)
	return n, err
}

func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM components WHERE component_id = ?`, id)
	if err != nil {
		return translate(err)
	}
	if aff, _ := res.RowsAffected(); aff == 0 {
		return apperr.NotFound("component not found")
	}
	return nil
}
