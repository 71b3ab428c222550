package components

import (
	"database/sql"
	"time"
)

type Category struct {
	ID          int64
	Name        string
	Description string
}

// Component は components テーブルの1行（カテゴリ名は JOIN で取得）
type Component struct {
	ID            int64
	SerialNumber  string
	Name          string
	CategoryID    int64
	CategoryName  string
	Description   string
	BoxNumber     sql.NullString
	DatasheetLink string
	Quantity      int
	Location      string
	LastUpdated   time.Time
}

// Patch holds the fields of a partial update; nil means unchanged.
type Patch struct {
	SerialNumber  *string
	Name          *string
	CategoryID    *int64
	Description   *string
	BoxNumber     *string
	DatasheetLink *string
	Quantity      *int
	Location      *string
}

func (p Patch) empty() bool {
	return p.SerialNumber == nil && p.Name == nil && p.CategoryID == nil && p.Description == nil &&
		p.BoxNumber == nil && p.DatasheetLink == nil && p.Quantity == nil && p.Location == nil
}

type Page struct {
	Limit  int
	Offset int
}

// OpenLoan is an unreturned checkout shown on the component detail.
type OpenLoan struct {
	TransactionID   int64     `json:"transaction_id"`
	TransactionULID string    `json:"transaction_ulid"`
	BeneficiaryID   int64     `json:"beneficiary_id"`
	BeneficiaryName string    `json:"beneficiary_name"`
	QuantityTaken   int       `json:"quantity_taken"`
	CheckoutTime    time.Time `json:"checkout_time"`
}
