package beneficiaries

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"robostock-backend/internal/inventory/access"
	"robostock-backend/internal/platform/apperr"
)

func TestStoreGetByAccountMissing(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectQuery(`FROM beneficiaries WHERE account_id = \?`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"beneficiary_id"}))

	b, err := NewStore(conn).GetByAccount(context.Background(), "ghost")
	if err != nil || b != nil {
		t.Fatalf("got %+v, %v", b, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStoreListBuildsFilter(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	cols := []string{"beneficiary_id", "category", "employee_id", "stream", "student_id", "account_id",
		"name", "phone_number", "email", "middle_name", "designation", "added_by"}
	cat := CategoryEmployee
	mock.ExpectQuery(`FROM beneficiaries WHERE \(name LIKE \? .*\) AND category = \? ORDER BY name`).
		WithArgs("%ra%", "%ra%", "%ra%", "%ra%", "Employee", 10, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow(4, "Employee", "E-4", nil, nil, nil, "Ravi", "", nil, "", "Engineer", "staff1"))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM beneficiaries WHERE`).
		WillReturnRows(sqlmock.NewRows([]string{"n"}).AddRow(1))

	items, total, err := NewStore(conn).List(context.Background(), Filter{Query: "ra", Category: &cat}, Page{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 || items[0].EmployeeID.String != "E-4" || !items[0].AddedBy.Valid {
		t.Fatalf("items = %+v total = %d", items, total)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestStoreDeleteReferenced(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectExec(`DELETE FROM beneficiaries`).
		WithArgs(int64(7)).
		WillReturnError(&mysql.MySQLError{Number: 1451, Message: "a foreign key constraint fails"})

	_, err = NewStore(conn).Delete(context.Background(), 7)
	if !apperr.Is(err, apperr.CodeHasTransactions) {
		t.Fatalf("err = %v", err)
	}
}

func TestEnsureForAccountDeletedAccount(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	mock.ExpectQuery(`FROM beneficiaries WHERE account_id = \?`).
		WithArgs("gone").
		WillReturnRows(sqlmock.NewRows([]string{"beneficiary_id"}))
	mock.ExpectExec(`INSERT INTO beneficiaries`).
		WillReturnError(&mysql.MySQLError{
			Number: 1452,
			Message: "Cannot add or update a child row: a foreign key constraint fails " +
				"(`robostock`.`beneficiaries`, CONSTRAINT `fk_beneficiaries_account` FOREIGN KEY (`account_id`) REFERENCES `auth_accounts` (`id`))",
		})

	svc := NewService(conn, nil)
	if _, err := svc.EnsureForAccount(context.Background(), access.Actor{AccountID: "gone"}); !apperr.Is(err, apperr.CodeUnauthorized) {
		t.Fatalf("err = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
