package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
)

type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunInTx starts a transaction and runs fn in it: COMMIT when fn returns nil,
// ROLLBACK otherwise.
func RunInTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// MySQL server error numbers the stores translate.
const (
	ErDupEntry        = 1062
	ErRowIsReferenced = 1451
	ErNoReferencedRow = 1452
)

func IsMySQLError(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

// ForeignKey returns the constraint name reported by a 1451/1452 error, or ""
// when err is not one of those or names no constraint.
func ForeignKey(err error) string {
	var me *mysql.MySQLError
	if !errors.As(err, &me) || (me.Number != ErRowIsReferenced && me.Number != ErNoReferencedRow) {
		return ""
	}
	_, rest, ok := strings.Cut(me.Message, "CONSTRAINT `")
	if !ok {
		return ""
	}
	name, _, ok := strings.Cut(rest, "`")
	if !ok {
		return ""
	}
	return name
}
