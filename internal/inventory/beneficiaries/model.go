package beneficiaries

import "database/sql"

type Category string

const (
	CategoryEmployee Category = "Employee"
	CategoryStudent  Category = "Student"
	CategoryIntern   Category = "Intern"
	CategoryOther    Category = "Other"
)

// Streams a Student may belong to.
var Streams = []string{"BCA", "AI & Robotics"}

// Beneficiary は beneficiaries テーブルの1行を表す
type Beneficiary struct {
	ID          int64
	Category    Category
	EmployeeID  sql.NullString
	Stream      sql.NullString
	StudentID   sql.NullString
	AccountID   sql.NullString
	Name        string
	PhoneNumber string
	Email       sql.NullString
	MiddleName  string
	Designation string
	AddedBy     sql.NullString
}

type Filter struct {
	Query    string
	Category *Category
}

type Page struct {
	Limit  int
	Offset int
}
