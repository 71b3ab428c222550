package beneficiaries

import (
	"context"
	"database/sql"
	"strings"

	"go.uber.org/zap"

	"robostock-backend/internal/inventory/access"
	"robostock-backend/internal/platform/apperr"
	"robostock-backend/internal/platform/db"
)

type Service struct {
	repo Repository
	log  *zap.Logger
}

func NewService(conn *sql.DB, log *zap.Logger) *Service {
	return NewServiceWithRepository(NewStore(conn), log)
}

func NewServiceWithRepository(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log}
}

func (s *Service) Create(ctx context.Context, actor access.Actor, in BeneficiaryRequest) (BeneficiaryResponse, error) {
	b, err := Normalize(in.input())
	if err != nil {
		return BeneficiaryResponse{}, err
	}
	if actor.AccountID != "" {
		b.AddedBy = sql.NullString{String: actor.AccountID, Valid: true}
	}
	if err := s.repo.Insert(ctx, &b); err != nil {
		return BeneficiaryResponse{}, err
	}
	s.log.Info("beneficiary created", zap.Int64("beneficiary_id", b.ID), zap.String("by", actor.AccountID))
	return toResponse(&b), nil
}

func (s *Service) Update(ctx context.Context, id int64, in BeneficiaryRequest) (BeneficiaryResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return BeneficiaryResponse{}, err
	}
	b, err := Normalize(in.input())
	if err != nil {
		return BeneficiaryResponse{}, err
	}
	b.ID = id
	b.AccountID = current.AccountID
	b.AddedBy = current.AddedBy

	if _, err := s.repo.Update(ctx, &b); err != nil {
		return BeneficiaryResponse{}, err
	}
	return toResponse(&b), nil
}

func (s *Service) Get(ctx context.Context, id int64) (BeneficiaryResponse, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return BeneficiaryResponse{}, err
	}
	return toResponse(b), nil
}

func (s *Service) List(ctx context.Context, f Filter, p Page) (ListResult, error) {
	if f.Category != nil {
		c, err := parseCategory(string(*f.Category))
		if err != nil {
			return ListResult{}, err
		}
		f.Category = &c
	}
	items, total, err := s.repo.List(ctx, f, p)
	if err != nil {
		return ListResult{}, err
	}
	out := make([]BeneficiaryResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	next := p.Offset + p.Limit
	if p.Limit <= 0 || next >= int(total) {
		next = 0
	} // 0=終端
	return ListResult{Items: out, Total: total, NextOffset: next}, nil
}

// Delete refuses to remove a beneficiary that any transaction references.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountTransactions(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.HasTransactions("beneficiary has transactions and cannot be deleted")
	}
	if _, err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return nil
}

// EnsureForAccount returns the beneficiary linked to the actor's account,
// creating an Other-category record named after the account on first use.
func (s *Service) EnsureForAccount(ctx context.Context, actor access.Actor) (int64, error) {
	if actor.AccountID == "" {
		return 0, apperr.Unauthorized("authentication required")
	}
	b, err := s.linked(ctx, actor)
	if err != nil {
		return 0, err
	}
	return b.ID, nil
}

func (s *Service) Mine(ctx context.Context, actor access.Actor) (BeneficiaryResponse, error) {
	b, err := s.linked(ctx, actor)
	if err != nil {
		return BeneficiaryResponse{}, err
	}
	return toResponse(b), nil
}

func (s *Service) linked(ctx context.Context, actor access.Actor) (*Beneficiary, error) {
	existing, err := s.repo.GetByAccount(ctx, actor.AccountID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	name := strings.TrimSpace(actor.DisplayName)
	if name == "" {
		name = actor.AccountID
	}
	b := Beneficiary{
		Category:  CategoryOther,
		Name:      name,
		Email:     nullIfEmpty(actor.Email),
		AccountID: sql.NullString{String: actor.AccountID, Valid: true},
	}
	if err := s.repo.Insert(ctx, &b); err != nil {
		// 同時リクエストで先に作られた場合はそちらを使う
		if db.IsMySQLError(err, db.ErDupEntry) {
			again, gerr := s.repo.GetByAccount(ctx, actor.AccountID)
			if gerr == nil && again != nil {
				return again, nil
			}
		}
		return nil, err
	}
	s.log.Info("beneficiary auto-created", zap.Int64("beneficiary_id", b.ID), zap.String("account", actor.AccountID))
	return &b, nil
}

func toResponse(b *Beneficiary) BeneficiaryResponse {
	return BeneficiaryResponse{
		BeneficiaryID: b.ID,
		Category:      string(b.Category),
		EmployeeID:    nullToPtr(b.EmployeeID),
		Stream:        nullToPtr(b.Stream),
		StudentID:     nullToPtr(b.StudentID),
		AccountID:     nullToPtr(b.AccountID),
		Name:          b.Name,
		PhoneNumber:   b.PhoneNumber,
		Email:         nullToPtr(b.Email),
		MiddleName:    b.MiddleName,
		Designation:   b.Designation,
		AddedBy:       nullToPtr(b.AddedBy),
	}
}

func nullToPtr(ns sql.NullString) *string {
	if ns.Valid {
		v := ns.String
		return &v
	}
	return nil
}
