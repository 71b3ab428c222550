package ledger

import "time"

type CheckoutRequest struct {
	// staff のみ指定。本人利用では省略（自分の受取人レコードになる）
	BeneficiaryID int64   `json:"beneficiary_id"`
	Quantity      int     `json:"quantity"`
	Note          *string `json:"note,omitempty"`
}

type TransactionResponse struct {
	TransactionID   int64      `json:"transaction_id"`
	TransactionULID string     `json:"transaction_ulid"`
	ComponentID     int64      `json:"component_id"`
	ComponentName   string     `json:"component_name"`
	BeneficiaryID   int64      `json:"beneficiary_id"`
	BeneficiaryName string     `json:"beneficiary_name"`
	QuantityTaken   int        `json:"quantity_taken"`
	Status          Status     `json:"status"`
	CheckoutTime    time.Time  `json:"checkout_time"`
	ReturnTime      *time.Time `json:"return_time"`
	AuthorizedBy    *string    `json:"authorized_by"`
	ReturnedBy      *string    `json:"returned_by"`
	Note            *string    `json:"note,omitempty"`
}
