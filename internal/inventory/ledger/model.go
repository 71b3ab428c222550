package ledger

import (
	"database/sql"
	"time"
)

type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// Transaction は transactions テーブルの1行を表す。
// ComponentName / BeneficiaryName は読み出し時の JOIN 結果。
type Transaction struct {
	ID              int64
	ULID            string
	ComponentID     int64
	ComponentName   string
	BeneficiaryID   int64
	BeneficiaryName string
	AuthorizedBy    sql.NullString
	ReturnedBy      sql.NullString
	CheckoutTime    time.Time
	ReturnTime      sql.NullTime
	QuantityTaken   int
	Note            sql.NullString
}

func (t *Transaction) Status() Status {
	if t.ReturnTime.Valid {
		return StatusClosed
	}
	return StatusOpen
}

// 受取人別一覧の検索条件
type Filter struct {
	Status *Status
	Limit  int
	Offset int
}
