package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"robostock-backend/internal/inventory/access"
	"robostock-backend/internal/platform/apperr"
	"robostock-backend/internal/platform/db"
)

var errAuthFailed = apperr.Unauthorized("invalid id or password")

type Service struct {
	store  AccountStore
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	log    *zap.Logger
}

func NewService(conn *sql.DB, cfg db.AuthConfig, log *zap.Logger) *Service {
	return NewServiceWithStore(NewStore(conn), cfg, log)
}

func NewServiceWithStore(store AccountStore, cfg db.AuthConfig, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  store,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    func() time.Time { return time.Now().UTC() },
		log:    log,
	}
}

func (s *Service) Login(ctx context.Context, id, password string) (LoginResponse, error) {
	acct, err := s.store.GetByID(ctx, id)
	if err != nil {
		return LoginResponse{}, err
	}
	// 存在しないIDでも同じエラーを返す
	if acct == nil || acct.IsDisabled {
		return LoginResponse{}, errAuthFailed
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)); err != nil {
		return LoginResponse{}, errAuthFailed
	}

	exp := s.now().Add(s.ttl)
	token, err := s.IssueToken(access.Actor{AccountID: acct.ID, DisplayName: acct.DisplayName, Role: access.Role(acct.Role)}, exp)
	if err != nil {
		return LoginResponse{}, err
	}
	s.log.Info("login", zap.String("account", acct.ID), zap.String("role", acct.Role))
	return LoginResponse{Token: token, ExpiresAt: exp, Account: toAccountResponse(acct)}, nil
}

func (s *Service) IssueToken(actor access.Actor, exp time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  actor.AccountID,
		"role": string(actor.Role),
		"name": actor.DisplayName,
		"iat":  s.now().Unix(),
		"exp":  exp.Unix(),
	})
	return token.SignedString(s.secret)
}

// ParseToken validates an HS256 token and returns the actor it names. The
// account is re-read so a deleted or disabled account stops working at once;
// role, name and email come from the account row, not the claims.
func (s *Service) ParseToken(ctx context.Context, tokenStr string) (*access.Actor, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || token == nil || !token.Valid {
		return nil, apperr.Unauthorized("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperr.Unauthorized("invalid claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, apperr.Unauthorized("invalid sub")
	}

	acct, err := s.store.GetByID(ctx, sub)
	if err != nil {
		return nil, err
	}
	if acct == nil || acct.IsDisabled {
		return nil, apperr.Unauthorized("account is no longer active")
	}
	role, ok := access.ParseRole(acct.Role)
	if !ok {
		role = access.RoleUser
	}
	actor := &access.Actor{AccountID: acct.ID, DisplayName: acct.DisplayName, Role: role}
	if acct.Email.Valid {
		actor.Email = acct.Email.String
	}
	return actor, nil
}

func (s *Service) CreateAccount(ctx context.Context, in CreateAccountRequest) (AccountResponse, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" || len(in.Password) < 8 {
		return AccountResponse{}, apperr.Invalid("id is required and password must be at least 8 characters")
	}
	role := access.RoleUser
	if in.Role != nil && *in.Role != "" {
		r, ok := access.ParseRole(*in.Role)
		if !ok {
			return AccountResponse{}, apperr.Invalid("role must be admin, staff or user")
		}
		role = r
	}

	exists, err := s.store.GetByID(ctx, id)
	if err != nil {
		return AccountResponse{}, err
	}
	if exists != nil {
		return AccountResponse{}, apperr.Conflict("id already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return AccountResponse{}, err
	}
	a := &Account{
		ID:           id,
		PasswordHash: string(hash),
		Role:         string(role),
		DisplayName:  strings.TrimSpace(in.DisplayName),
		CreatedAt:    s.now(),
	}
	if in.Email != nil && strings.TrimSpace(*in.Email) != "" {
		a.Email = sql.NullString{String: strings.TrimSpace(*in.Email), Valid: true}
	}
	if err := s.store.Create(ctx, a); err != nil {
		if db.IsMySQLError(err, db.ErDupEntry) {
			return AccountResponse{}, apperr.Conflict("id already exists")
		}
		return AccountResponse{}, err
	}
	return toAccountResponse(a), nil
}

func (s *Service) ListAccounts(ctx context.Context) ([]AccountResponse, error) {
	accts, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]AccountResponse, 0, len(accts))
	for i := range accts {
		out = append(out, toAccountResponse(&accts[i]))
	}
	return out, nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (AccountResponse, error) {
	a, err := s.store.GetByID(ctx, id)
	if err != nil {
		return AccountResponse{}, err
	}
	if a == nil {
		return AccountResponse{}, apperr.NotFound("account not found")
	}
	return toAccountResponse(a), nil
}

func (s *Service) DeleteAccount(ctx context.Context, actor access.Actor, id string) error {
	if id == actor.AccountID {
		return apperr.Conflict("you cannot delete your own account while logged in")
	}
	n, err := s.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("account not found")
	}
	s.log.Info("account deleted", zap.String("account", id), zap.String("by", actor.AccountID))
	return nil
}

// EnsureSuperuser creates the admin account if it is missing and promotes it
// to admin if it exists with a lower role. An existing password is kept.
func (s *Service) EnsureSuperuser(ctx context.Context, id, password, displayName string) (created bool, err error) {
	existing, err := s.store.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if existing != nil {
		if existing.Role != string(access.RoleAdmin) {
			if _, err := s.store.UpdateRole(ctx, id, string(access.RoleAdmin)); err != nil {
				return false, err
			}
		}
		return false, nil
	}

	role := string(access.RoleAdmin)
	if _, err := s.CreateAccount(ctx, CreateAccountRequest{ID: id, Password: password, Role: &role, DisplayName: displayName}); err != nil {
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.Code == apperr.CodeConflict {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func toAccountResponse(a *Account) AccountResponse {
	resp := AccountResponse{
		ID:          a.ID,
		Role:        a.Role,
		DisplayName: a.DisplayName,
		IsDisabled:  a.IsDisabled,
		CreatedAt:   a.CreatedAt,
	}
	if a.Email.Valid {
		v := a.Email.String
		resp.Email = &v
	}
	return resp
}
