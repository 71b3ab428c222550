package components

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"robostock-backend/internal/platform/apperr"
)

// LoanLister lists the open checkouts of a component.
type LoanLister interface {
	OpenLoans(ctx context.Context, componentID int64) ([]OpenLoan, error)
}

type Service struct {
	repo  Repository
	loans LoanLister
	log   *zap.Logger
	now   func() time.Time
}

func NewService(conn *sql.DB, log *zap.Logger) *Service {
	return NewServiceWithRepository(NewStore(conn), log)
}

func NewServiceWithRepository(repo Repository, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{repo: repo, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// SetLoanLister wires the ledger in for Detail. Detail returns no loans until set.
func (s *Service) SetLoanLister(l LoanLister) { s.loans = l }

// ===== categories =====

func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryRequest) (CategoryResponse, error) {
	c := Category{Name: strings.TrimSpace(in.Name), Description: strings.TrimSpace(in.Description)}
	if c.Name == "" {
		return CategoryResponse{}, apperr.Invalid("name is required")
	}
	if err := s.repo.InsertCategory(ctx, &c); err != nil {
		return CategoryResponse{}, err
	}
	return CategoryResponse{CategoryID: c.ID, Name: c.Name, Description: c.Description}, nil
}

func (s *Service) ListCategories(ctx context.Context) ([]CategoryResponse, error) {
	cats, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CategoryResponse, 0, len(cats))
	for _, c := range cats {
		out = append(out, CategoryResponse{CategoryID: c.ID, Name: c.Name, Description: c.Description})
	}
	return out, nil
}

// ===== components =====

func (s *Service) Create(ctx context.Context, in CreateComponentRequest) (ComponentResponse, error) {
	c := Component{
		SerialNumber:  strings.TrimSpace(in.SerialNumber),
		Name:          strings.TrimSpace(in.Name),
		CategoryID:    in.CategoryID,
		Description:   strings.TrimSpace(in.Description),
		DatasheetLink: strings.TrimSpace(in.DatasheetLink),
		Quantity:      in.Quantity,
		Location:      strings.TrimSpace(in.Location),
		LastUpdated:   s.now(),
	}
	if in.BoxNumber != nil && strings.TrimSpace(*in.BoxNumber) != "" {
		c.BoxNumber = sql.NullString{String: strings.TrimSpace(*in.BoxNumber), Valid: true}
	}
	if c.SerialNumber == "" || c.Name == "" || c.CategoryID <= 0 {
		return ComponentResponse{}, apperr.Invalid("serial_number, name and category_id are required")
	}
	if c.Quantity < 0 {
		return ComponentResponse{}, apperr.InvalidQuantity("quantity must not be negative")
	}

	if err := s.repo.Insert(ctx, &c); err != nil {
		return ComponentResponse{}, err
	}
	s.log.Info("component created", zap.Int64("component_id", c.ID), zap.String("serial", c.SerialNumber))
	return s.Get(ctx, c.ID)
}

func (s *Service) Get(ctx context.Context, id int64) (ComponentResponse, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ComponentResponse{}, err
	}
	return toResponse(c), nil
}

// Detail returns the component together with its open loans, read concurrently.
func (s *Service) Detail(ctx context.Context, id int64) (ComponentDetailResponse, error) {
	var (
		comp  *Component
		loans []OpenLoan
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c, err := s.repo.GetByID(gctx, id)
		comp = c
		return err
	})
	if s.loans != nil {
		g.Go(func() error {
			l, err := s.loans.OpenLoans(gctx, id)
			loans = l
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return ComponentDetailResponse{}, err
	}
	if loans == nil {
		loans = []OpenLoan{}
	}
	return ComponentDetailResponse{ComponentResponse: toResponse(comp), OpenLoans: loans}, nil
}

func (s *Service) List(ctx context.Context, query string, p Page) (ListResult, error) {
	if p.Limit <= 0 {
		p.Limit = 50
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	items, total, err := s.repo.List(ctx, query, p)
	if err != nil {
		return ListResult{}, err
	}
	out := make([]ComponentResponse, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	next := p.Offset + p.Limit
	if next >= int(total) {
		next = 0
	}
	return ListResult{Items: out, Total: total, NextOffset: next}, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateComponentRequest) (ComponentResponse, error) {
	p := Patch{
		SerialNumber:  trimPtr(in.SerialNumber),
		Name:          trimPtr(in.Name),
		CategoryID:    in.CategoryID,
		Description:   trimPtr(in.Description),
		BoxNumber:     trimPtr(in.BoxNumber),
		DatasheetLink: trimPtr(in.DatasheetLink),
		Quantity:      in.Quantity,
		Location:      trimPtr(in.Location),
	}
	if p.SerialNumber != nil && *p.SerialNumber == "" {
		return ComponentResponse{}, apperr.Invalid("serial_number must not be empty")
	}
	if p.Name != nil && *p.Name == "" {
		return ComponentResponse{}, apperr.Invalid("name must not be empty")
	}
	if p.CategoryID != nil && *p.CategoryID <= 0 {
		return ComponentResponse{}, apperr.Invalid("category_id must be positive")
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return ComponentResponse{}, apperr.InvalidQuantity("quantity must not be negative")
	}
	if p.empty() {
		return s.Get(ctx, id)
	}

	if err := s.repo.Update(ctx, id, p, s.now()); err != nil {
		return ComponentResponse{}, err
	}
	return s.Get(ctx, id)
}

// Delete is refused while any transaction references the component.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	n, err := s.repo.CountTransactions(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return apperr.HasTransactions("component has transactions and cannot be deleted")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("component deleted", zap.Int64("component_id", id))
	return nil
}

func toResponse(c *Component) ComponentResponse {
	var box *string
	if c.BoxNumber.Valid {
		v := c.BoxNumber.String
		box = &v
	}
	return ComponentResponse{
		ComponentID:   c.ID,
		SerialNumber:  c.SerialNumber,
		Name:          c.Name,
		CategoryID:    c.CategoryID,
		CategoryName:  c.CategoryName,
		Description:   c.Description,
		BoxNumber:     box,
		DatasheetLink: c.DatasheetLink,
		Quantity:      c.Quantity,
		Location:      c.Location,
		LastUpdated:   c.LastUpdated,
	}
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
