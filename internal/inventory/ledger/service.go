package ledger

import (
	"context"
	"crypto/rand"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"robostock-backend/internal/inventory/access"
	"robostock-backend/internal/inventory/components"
	"robostock-backend/internal/platform/apperr"
)

// ===== インターフェース群 =====

type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

type IDGen interface {
	New() (string, error)
}

type ulidGen struct{}

func (ulidGen) New() (string, error) {
	entropy := ulid.Monotonic(rand.Reader, 0)
	id, err := ulid.New(ulid.Timestamp(time.Now().UTC()), entropy)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// ===== Service本体 =====

type Service struct {
	store Store
	clock Clock
	id    IDGen
	log   *zap.Logger
}

func NewService(conn *sql.DB, log *zap.Logger) *Service {
	return NewServiceWithStore(NewStore(conn), realClock{}, ulidGen{}, log)
}

func NewServiceWithStore(store Store, clock Clock, id IDGen, log *zap.Logger) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if id == nil {
		id = ulidGen{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, clock: clock, id: id, log: log}
}

// Checkout records quantity units of a component as taken by a beneficiary.
// Stock is checked and decremented under the component's row lock, so two
// checkouts can never take more than is on the shelf.
func (s *Service) Checkout(ctx context.Context, actor access.Actor, componentID, beneficiaryID int64, quantity int, note string) (TransactionResponse, error) {
	if actor.AccountID == "" {
		return TransactionResponse{}, apperr.Unauthorized("authentication required")
	}
	if quantity <= 0 {
		return TransactionResponse{}, apperr.InvalidQuantity("quantity must be a positive integer")
	}

	idStr, err := s.id.New()
	if err != nil {
		return TransactionResponse{}, err
	}

	t := &Transaction{
		ULID:          idStr,
		ComponentID:   componentID,
		BeneficiaryID: beneficiaryID,
		AuthorizedBy:  sql.NullString{String: actor.AccountID, Valid: true},
		QuantityTaken: quantity,
	}
	if n := strings.TrimSpace(note); n != "" {
		t.Note = sql.NullString{String: n, Valid: true}
	}

	err = s.store.InTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		available, err := uow.LockComponent(ctx, componentID)
		if err != nil {
			return err
		}
		ok, err := uow.BeneficiaryExists(ctx, beneficiaryID)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.NotFound("beneficiary not found")
		}
		if quantity > available {
			return apperr.InsufficientStock(quantity, available)
		}

		now := s.clock.Now()
		taken, err := uow.TakeStock(ctx, componentID, quantity, now)
		if err != nil {
			return err
		}
		if !taken {
			return apperr.InsufficientStock(quantity, available)
		}
		t.CheckoutTime = now
		return uow.InsertTransaction(ctx, t)
	})
	if err != nil {
		return TransactionResponse{}, err
	}

	s.log.Info("checkout",
		zap.Int64("transaction_id", t.ID),
		zap.String("transaction_ulid", t.ULID),
		zap.Int64("component_id", componentID),
		zap.Int64("beneficiary_id", beneficiaryID),
		zap.Int("quantity", quantity),
		zap.String("by", actor.AccountID))
	return s.get(ctx, t.ID)
}

// ReturnItem closes an open transaction and puts its quantity back in stock.
func (s *Service) ReturnItem(ctx context.Context, actor access.Actor, transactionID int64) (TransactionResponse, error) {
	if actor.AccountID == "" {
		return TransactionResponse{}, apperr.Unauthorized("authentication required")
	}

	err := s.store.InTx(ctx, func(ctx context.Context, uow UnitOfWork) error {
		t, err := uow.LockTransaction(ctx, transactionID)
		if err != nil {
			return err
		}
		if t.ReturnTime.Valid {
			return apperr.AlreadyReturned()
		}

		now := s.clock.Now()
		closed, err := uow.MarkReturned(ctx, t.ID, now, actor.AccountID)
		if err != nil {
			return err
		}
		if !closed {
			return apperr.AlreadyReturned()
		}
		return uow.RestoreStock(ctx, t.ComponentID, t.QuantityTaken, now)
	})
	if err != nil {
		return TransactionResponse{}, err
	}

	s.log.Info("return", zap.Int64("transaction_id", transactionID), zap.String("by", actor.AccountID))
	return s.get(ctx, transactionID)
}

// ReturnByKey is ReturnItem addressed by numeric id or ULID.
func (s *Service) ReturnByKey(ctx context.Context, actor access.Actor, key string) (TransactionResponse, error) {
	if actor.AccountID == "" {
		return TransactionResponse{}, apperr.Unauthorized("authentication required")
	}
	id, err := s.resolve(ctx, key)
	if err != nil {
		return TransactionResponse{}, err
	}
	return s.ReturnItem(ctx, actor, id)
}

// GetTransaction は数値なら transaction_id、それ以外は ULID として検索する
func (s *Service) GetTransaction(ctx context.Context, key string) (TransactionResponse, error) {
	t, err := s.lookup(ctx, key)
	if err != nil {
		return TransactionResponse{}, err
	}
	return toResponse(t), nil
}

func (s *Service) ListOpenForComponent(ctx context.Context, componentID int64) ([]TransactionResponse, error) {
	ok, err := s.store.ComponentExists(ctx, componentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("component not found")
	}
	ts, err := s.store.ListOpenForComponent(ctx, componentID)
	if err != nil {
		return nil, err
	}
	return toResponses(ts), nil
}

// ListForBeneficiary returns newest first.
func (s *Service) ListForBeneficiary(ctx context.Context, beneficiaryID int64, f Filter) ([]TransactionResponse, error) {
	if f.Status != nil && *f.Status != StatusOpen && *f.Status != StatusClosed {
		return nil, apperr.Invalid("status must be OPEN or CLOSED")
	}
	ok, err := s.store.BeneficiaryExists(ctx, beneficiaryID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("beneficiary not found")
	}
	ts, err := s.store.ListForBeneficiary(ctx, beneficiaryID, f)
	if err != nil {
		return nil, err
	}
	return toResponses(ts), nil
}

// OpenLoans feeds the component detail view.
func (s *Service) OpenLoans(ctx context.Context, componentID int64) ([]components.OpenLoan, error) {
	ts, err := s.store.ListOpenForComponent(ctx, componentID)
	if err != nil {
		return nil, err
	}
	out := make([]components.OpenLoan, 0, len(ts))
	for _, t := range ts {
		out = append(out, components.OpenLoan{
			TransactionID:   t.ID,
			TransactionULID: t.ULID,
			BeneficiaryID:   t.BeneficiaryID,
			BeneficiaryName: t.BeneficiaryName,
			QuantityTaken:   t.QuantityTaken,
			CheckoutTime:    t.CheckoutTime,
		})
	}
	return out, nil
}

// ---------- helpers ----------

func (s *Service) get(ctx context.Context, id int64) (TransactionResponse, error) {
	t, err := s.store.GetByID(ctx, id)
	if err != nil {
		return TransactionResponse{}, err
	}
	return toResponse(t), nil
}

func (s *Service) lookup(ctx context.Context, key string) (*Transaction, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperr.Invalid("id or ulid is required")
	}
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		if id <= 0 {
			return nil, apperr.Invalid("id must be positive")
		}
		return s.store.GetByID(ctx, id)
	}
	u, err := ulid.ParseStrict(key)
	if err != nil {
		return nil, apperr.Invalid("key must be a transaction id or ULID")
	}
	return s.store.GetByULID(ctx, u.String())
}

func (s *Service) resolve(ctx context.Context, key string) (int64, error) {
	if id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64); err == nil && id > 0 {
		return id, nil
	}
	t, err := s.lookup(ctx, key)
	if err != nil {
		return 0, err
	}
	return t.ID, nil
}

func toResponses(ts []Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(ts))
	for i := range ts {
		out = append(out, toResponse(&ts[i]))
	}
	return out
}

func toResponse(t *Transaction) TransactionResponse {
	resp := TransactionResponse{
		TransactionID:   t.ID,
		TransactionULID: t.ULID,
		ComponentID:     t.ComponentID,
		ComponentName:   t.ComponentName,
		BeneficiaryID:   t.BeneficiaryID,
		BeneficiaryName: t.BeneficiaryName,
		QuantityTaken:   t.QuantityTaken,
		Status:          t.Status(),
		CheckoutTime:    t.CheckoutTime,
	}
	if t.ReturnTime.Valid {
		v := t.ReturnTime.Time
		resp.ReturnTime = &v
	}
	if t.AuthorizedBy.Valid {
		v := t.AuthorizedBy.String
		resp.AuthorizedBy = &v
	}
	if t.ReturnedBy.Valid {
		v := t.ReturnedBy.String
		resp.ReturnedBy = &v
	}
	if t.Note.Valid {
		v := t.Note.String
		resp.Note = &v
	}
	return resp
}
