package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"robostock-backend/internal/platform/apperr"
)

type memComponent struct {
	name    string
	qty     int
	updated time.Time
}

// memStore mirrors the MySQL store: one mutex stands in for the row locks and
// a snapshot is restored when the unit of work fails.
type memStore struct {
	mu            sync.Mutex
	components    map[int64]memComponent
	beneficiaries map[int64]string
	txns          map[int64]Transaction
	nextID        int64
	failInsert    error
}

func newMemStore() *memStore {
	return &memStore{
		components:    map[int64]memComponent{},
		beneficiaries: map[int64]string{},
		txns:          map[int64]Transaction{},
	}
}

func (s *memStore) addComponent(id int64, name string, qty int) {
	s.components[id] = memComponent{name: name, qty: qty}
}

func (s *memStore) quantity(id int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.components[id].qty
}

func (s *memStore) InTx(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	comps := make(map[int64]memComponent, len(s.components))
	for k, v := range s.components {
		comps[k] = v
	}
	txns := make(map[int64]Transaction, len(s.txns))
	for k, v := range s.txns {
		txns[k] = v
	}
	nextID := s.nextID

	if err := fn(ctx, (*memUOW)(s)); err != nil {
		s.components, s.txns, s.nextID = comps, txns, nextID
		return err
	}
	return nil
}

func (s *memStore) fill(t Transaction) *Transaction {
	t.ComponentName = s.components[t.ComponentID].name
	t.BeneficiaryName = s.beneficiaries[t.BeneficiaryID]
	return &t
}

func (s *memStore) GetByID(_ context.Context, id int64) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txns[id]
	if !ok {
		return nil, apperr.NotFound("transaction not found")
	}
	return s.fill(t), nil
}

func (s *memStore) GetByULID(_ context.Context, u string) (*Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.txns {
		if t.ULID == u {
			return s.fill(t), nil
		}
	}
	return nil, apperr.NotFound("transaction not found")
}

func (s *memStore) ComponentExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.components[id]
	return ok, nil
}

func (s *memStore) BeneficiaryExists(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.beneficiaries[id]
	return ok, nil
}

func (s *memStore) ListOpenForComponent(_ context.Context, componentID int64) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Transaction{}
	for _, t := range s.txns {
		if t.ComponentID == componentID && !t.ReturnTime.Valid {
			out = append(out, *s.fill(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *memStore) ListForBeneficiary(_ context.Context, beneficiaryID int64, f Filter) ([]Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Transaction{}
	for _, t := range s.txns {
		if t.BeneficiaryID != beneficiaryID {
			continue
		}
		if f.Status != nil && t.Status() != *f.Status {
			continue
		}
		out = append(out, *s.fill(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CheckoutTime.Equal(out[j].CheckoutTime) {
			return out[i].CheckoutTime.After(out[j].CheckoutTime)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

// memUOW runs with memStore.mu already held.
type memUOW memStore

func (u *memUOW) LockComponent(_ context.Context, id int64) (int, error) {
	c, ok := u.components[id]
	if !ok {
		return 0, apperr.NotFound("component not found")
	}
	return c.qty, nil
}

func (u *memUOW) BeneficiaryExists(_ context.Context, id int64) (bool, error) {
	_, ok := u.beneficiaries[id]
	return ok, nil
}

func (u *memUOW) TakeStock(_ context.Context, id int64, qty int, at time.Time) (bool, error) {
	c := u.components[id]
	if c.qty < qty {
		return false, nil
	}
	c.qty -= qty
	c.updated = at
	u.components[id] = c
	return true, nil
}

func (u *memUOW) RestoreStock(_ context.Context, id int64, qty int, at time.Time) error {
	c, ok := u.components[id]
	if !ok {
		return fmt.Errorf("component %d vanished", id)
	}
	c.qty += qty
	c.updated = at
	u.components[id] = c
	return nil
}

func (u *memUOW) InsertTransaction(_ context.Context, t *Transaction) error {
	if u.failInsert != nil {
		return u.failInsert
	}
	u.nextID++
	t.ID = u.nextID
	u.txns[t.ID] = *t
	return nil
}

func (u *memUOW) LockTransaction(_ context.Context, id int64) (*Transaction, error) {
	t, ok := u.txns[id]
	if !ok {
		return nil, apperr.NotFound("transaction not found")
	}
	return &t, nil
}

func (u *memUOW) MarkReturned(_ context.Context, id int64, at time.Time, by string) (bool, error) {
	t := u.txns[id]
	if t.ReturnTime.Valid {
		return false, nil
	}
	t.ReturnTime.Time, t.ReturnTime.Valid = at, true
	if by != "" {
		t.ReturnedBy.String, t.ReturnedBy.Valid = by, true
	}
	u.txns[id] = t
	return true, nil
}
