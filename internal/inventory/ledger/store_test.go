package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"robostock-backend/internal/platform/apperr"
)

var txColumns = []string{"transaction_id", "transaction_ulid", "component_id", "name", "beneficiary_id", "name",
	"authorized_by", "returned_by", "checkout_time", "return_time", "quantity_taken", "note"}

func TestMySQLCheckoutLocksAndGuards(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT quantity FROM components WHERE component_id = \? FOR UPDATE`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(5))
	mock.ExpectQuery(`SELECT 1 FROM beneficiaries`).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec(`UPDATE components\s+SET quantity = quantity - \?, last_updated = \?\s+WHERE component_id = \? AND quantity >= \?`).
		WithArgs(2, t0, int64(1), 2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO transactions`).
		WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()
	mock.ExpectQuery(`FROM transactions t\s+JOIN components c .*\s+JOIN beneficiaries b .* WHERE t.transaction_id = \?`).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows(txColumns).
			AddRow(42, "01HZZZZZZZZZZZZZZZZZZZ0001", 1, "Arduino Uno", 10, "Asha", "staff1", nil, t0, nil, 2, nil))

	svc := NewServiceWithStore(NewStore(conn), fixedClock{t0}, &seqID{}, nil)
	tx, err := svc.Checkout(context.Background(), staff, 1, 10, 2, "")
	if err != nil {
		t.Fatal(err)
	}
	if tx.TransactionID != 42 || tx.Status != StatusOpen {
		t.Fatalf("tx = %+v", tx)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func fkError(constraint string) error {
	return &mysql.MySQLError{
		Number: 1452,
		Message: "Cannot add or update a child row: a foreign key constraint fails " +
			"(`robostock`.`transactions`, CONSTRAINT `" + constraint + "` FOREIGN KEY (`x`) REFERENCES `y` (`z`))",
	}
}

func TestMySQLCheckoutInsertForeignKeyErrors(t *testing.T) {
	cases := []struct {
		constraint string
		want       apperr.Code
	}{
		{"fk_transactions_component", apperr.CodeNotFound},
		{"fk_transactions_beneficiary", apperr.CodeNotFound},
		{"fk_transactions_authorized_by", apperr.CodeUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.constraint, func(t *testing.T) {
			conn, mock, err := sqlmock.New()
			if err != nil {
				t.Fatal(err)
			}
			defer conn.Close()

			mock.ExpectBegin()
			mock.ExpectQuery(`FOR UPDATE`).
				WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(5))
			mock.ExpectQuery(`SELECT 1 FROM beneficiaries`).
				WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
			mock.ExpectExec(`UPDATE components`).
				WillReturnResult(sqlmock.NewResult(0, 1))
			mock.ExpectExec(`INSERT INTO transactions`).
				WillReturnError(fkError(tc.constraint))
			mock.ExpectRollback()

			svc := NewServiceWithStore(NewStore(conn), fixedClock{t0}, &seqID{}, nil)
			_, err = svc.Checkout(context.Background(), staff, 1, 10, 1, "")
			if !apperr.Is(err, tc.want) {
				t.Fatalf("err = %v, want %s", err, tc.want)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatal(err)
			}
		})
	}
}

func TestMySQLReturnByDeletedAccount(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM transactions WHERE transaction_id = \? FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "component_id", "quantity_taken", "return_time"}).
			AddRow(7, 1, 2, nil))
	mock.ExpectExec(`UPDATE transactions`).
		WillReturnError(fkError("fk_transactions_returned_by"))
	mock.ExpectRollback()

	svc := NewServiceWithStore(NewStore(conn), fixedClock{t0}, &seqID{}, nil)
	if _, err := svc.ReturnItem(context.Background(), staff, 7); !apperr.Is(err, apperr.CodeUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMySQLCheckoutInsufficientRollsBack(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(1))
	mock.ExpectQuery(`SELECT 1 FROM beneficiaries`).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	svc := NewServiceWithStore(NewStore(conn), fixedClock{t0}, &seqID{}, nil)
	_, err = svc.Checkout(context.Background(), staff, 1, 10, 3, "")
	if !apperr.Is(err, apperr.CodeInsufficientStock) {
		t.Fatalf("err = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMySQLReturnGuardsDoubleClose(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM transactions WHERE transaction_id = \? FOR UPDATE`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"transaction_id", "component_id", "quantity_taken", "return_time"}).
			AddRow(7, 1, 2, nil))
	mock.ExpectExec(`UPDATE transactions\s+SET return_time = \?, returned_by = \?\s+WHERE transaction_id = \? AND return_time IS NULL`).
		WithArgs(t0, "staff1", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	svc := NewServiceWithStore(NewStore(conn), fixedClock{t0}, &seqID{}, nil)
	_, err = svc.ReturnItem(context.Background(), staff, 7)
	if !apperr.Is(err, apperr.CodeAlreadyReturned) {
		t.Fatalf("err = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestMySQLListForBeneficiaryOrdering(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	open := StatusOpen
	later := t0.Add(time.Hour)
	mock.ExpectQuery(`WHERE t.beneficiary_id = \? AND t.return_time IS NULL ORDER BY t.checkout_time DESC, t.transaction_id DESC LIMIT \? OFFSET \?`).
		WithArgs(int64(10), 20, 0).
		WillReturnRows(sqlmock.NewRows(txColumns).
			AddRow(2, "01HZZZZZZZZZZZZZZZZZZZ0002", 1, "Arduino Uno", 10, "Asha", "staff1", nil, later, nil, 1, "spare").
			AddRow(1, "01HZZZZZZZZZZZZZZZZZZZ0001", 1, "Arduino Uno", 10, "Asha", nil, nil, t0, nil, 1, nil))

	ts, err := NewStore(conn).ListForBeneficiary(context.Background(), 10, Filter{Status: &open, Limit: 20})
	if err != nil {
		t.Fatal(err)
	}
	if len(ts) != 2 || ts[0].ID != 2 || !ts[0].Note.Valid || ts[1].AuthorizedBy.Valid {
		t.Fatalf("ts = %+v", ts)
	}
}
