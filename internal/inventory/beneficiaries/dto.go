package beneficiaries

type BeneficiaryRequest struct {
	Category    string `json:"category"`
	EmployeeID  string `json:"employee_id"`
	Stream      string `json:"stream"`
	StudentID   string `json:"student_id"`
	Name        string `json:"name" binding:"required"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	MiddleName  string `json:"middle_name"`
	Designation string `json:"designation"`
}

func (r BeneficiaryRequest) input() Input {
	return Input{
		Category:    r.Category,
		EmployeeID:  r.EmployeeID,
		Stream:      r.Stream,
		StudentID:   r.StudentID,
		Name:        r.Name,
		PhoneNumber: r.PhoneNumber,
		Email:       r.Email,
		MiddleName:  r.MiddleName,
		Designation: r.Designation,
	}
}

type BeneficiaryResponse struct {
	BeneficiaryID int64   `json:"beneficiary_id"`
	Category      string  `json:"category"`
	EmployeeID    *string `json:"employee_id"`
	Stream        *string `json:"stream"`
	StudentID     *string `json:"student_id"`
	AccountID     *string `json:"account_id,omitempty"`
	Name          string  `json:"name"`
	PhoneNumber   string  `json:"phone_number"`
	Email         *string `json:"email,omitempty"`
	MiddleName    string  `json:"middle_name,omitempty"`
	Designation   string  `json:"designation,omitempty"`
	AddedBy       *string `json:"added_by,omitempty"`
}

type ListResult struct {
	Items      []BeneficiaryResponse `json:"items"`
	Total      int64                 `json:"total"`
	NextOffset int                   `json:"next_offset"`
}
