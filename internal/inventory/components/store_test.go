package components

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"robostock-backend/internal/platform/apperr"
)

func TestStoreInsertTranslatesConstraintErrors(t *testing.T) {
	cases := []struct {
		number uint16
		code   apperr.Code
	}{
		{1062, apperr.CodeConflict},
		{1452, apperr.CodeInvalidArgument},
	}
	for _, tc := range cases {
		conn, mock, err := sqlmock.New()
		if err != nil {
			t.Fatal(err)
		}
		mock.ExpectExec(`INSERT INTO components`).
			WillReturnError(&mysql.MySQLError{Number: tc.number})

		err = NewStore(conn).Insert(context.Background(), &Component{SerialNumber: "SN", Name: "n", CategoryID: 1})
		if !apperr.Is(err, tc.code) {
			t.Errorf("mysql %d: err = %v, want %s", tc.number, err, tc.code)
		}
		conn.Close()
	}
}

func TestStoreUpdateBuildsSetList(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	now := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	qty, box := 7, ""
	mock.ExpectExec(`UPDATE components SET last_updated = \?, box_number = \?, quantity = \? WHERE component_id = \?`).
		WithArgs(now, nil, 7, int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewStore(conn).Update(context.Background(), 3, Patch{Quantity: &qty, BoxNumber: &box}, now); err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStoreGetMissing(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectQuery(`FROM components c\s+JOIN categories cat .* WHERE c.component_id = \?`).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"component_id"}))

	if _, err := NewStore(conn).GetByID(context.Background(), 5); !apperr.Is(err, apperr.CodeNotFound) {
		t.Fatalf("err = %v", err)
	}
}
