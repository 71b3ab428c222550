package beneficiaries

import (
	"database/sql"
	"strings"

	"robostock-backend/internal/platform/apperr"
)

// Input is a beneficiary as submitted, before category rules are applied.
type Input struct {
	Category    string
	EmployeeID  string
	Stream      string
	StudentID   string
	Name        string
	PhoneNumber string
	Email       string
	MiddleName  string
	Designation string
}

// Normalize applies the identifier rules for the chosen category:
//
//	Employee      requires employee_id, clears stream and student_id
//	Student       requires stream and student_id, clears employee_id
//	Intern/Other  clears all three
//
// Identifiers that do not apply are dropped whatever was submitted.
func Normalize(in Input) (Beneficiary, error) {
	cat, err := parseCategory(in.Category)
	if err != nil {
		return Beneficiary{}, err
	}

	employeeID := strings.TrimSpace(in.EmployeeID)
	stream := strings.TrimSpace(in.Stream)
	studentID := strings.TrimSpace(in.StudentID)

	b := Beneficiary{
		Category:    cat,
		Name:        strings.TrimSpace(in.Name),
		PhoneNumber: strings.TrimSpace(in.PhoneNumber),
		Email:       nullIfEmpty(in.Email),
		MiddleName:  strings.TrimSpace(in.MiddleName),
		Designation: strings.TrimSpace(in.Designation),
	}

	switch cat {
	case CategoryEmployee:
		if employeeID == "" {
			return Beneficiary{}, apperr.MissingIdentifier("employee_id")
		}
		b.EmployeeID = nullIfEmpty(employeeID)
	case CategoryStudent:
		if stream == "" {
			return Beneficiary{}, apperr.MissingIdentifier("stream")
		}
		if studentID == "" {
			return Beneficiary{}, apperr.MissingIdentifier("student_id")
		}
		if !validStream(stream) {
			return Beneficiary{}, apperr.Invalid("stream must be one of: " + strings.Join(Streams, ", "))
		}
		b.Stream = nullIfEmpty(stream)
		b.StudentID = nullIfEmpty(studentID)
	}

	if b.Name == "" {
		return Beneficiary{}, apperr.Invalid("name is required")
	}
	if len(b.PhoneNumber) > 15 {
		return Beneficiary{}, apperr.Invalid("phone_number must be at most 15 characters")
	}
	return b, nil
}

func parseCategory(s string) (Category, error) {
	switch Category(strings.TrimSpace(s)) {
	case "":
		return CategoryOther, nil
	case CategoryEmployee:
		return CategoryEmployee, nil
	case CategoryStudent:
		return CategoryStudent, nil
	case CategoryIntern:
		return CategoryIntern, nil
	case CategoryOther:
		return CategoryOther, nil
	}
	return "", apperr.Invalid("category must be Employee, Student, Intern or Other")
}

func validStream(s string) bool {
	for _, v := range Streams {
		if v == s {
			return true
		}
	}
	return false
}

func nullIfEmpty(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
