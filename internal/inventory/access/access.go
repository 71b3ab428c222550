// Package access decides who may run which inventory operation.
//
// There are three levels. LevelAdmin manages accounts. LevelStaff manages
// components and beneficiaries and checks items out/in on behalf of anyone.
// LevelSelf is any authenticated account; it may only check out to its own
// beneficiary record, which is created on first use.
package access

import (
	"context"

	"robostock-backend/internal/platform/apperr"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleUser  Role = "user"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleStaff, RoleUser:
		return Role(s), true
	}
	return "", false
}

type Level int

const (
	LevelSelf Level = iota + 1
	LevelStaff
	LevelAdmin
)

func (l Level) String() string {
	switch l {
	case LevelSelf:
		return "authenticated"
	case LevelStaff:
		return "staff"
	case LevelAdmin:
		return "admin"
	}
	return "unknown"
}

// Actor is the authenticated account behind a request.
type Actor struct {
	AccountID   string
	DisplayName string
	Email       string
	Role        Role
}

func (a *Actor) Authenticated() bool { return a != nil && a.AccountID != "" }

func (a *Actor) level() Level {
	switch a.Role {
	case RoleAdmin:
		return LevelAdmin
	case RoleStaff:
		return LevelStaff
	default:
		return LevelSelf
	}
}

// Has reports whether the actor reaches at least the given level.
func (a *Actor) Has(l Level) bool {
	return a.Authenticated() && a.level() >= l
}

// BeneficiaryLinker resolves the beneficiary record owned by an account,
// creating it when it does not exist yet.
type BeneficiaryLinker interface {
	EnsureForAccount(ctx context.Context, actor Actor) (int64, error)
}

type Gate struct {
	linker BeneficiaryLinker
}

func NewGate(linker BeneficiaryLinker) *Gate { return &Gate{linker: linker} }

// Require fails with UNAUTHORIZED when nobody is signed in and FORBIDDEN when
// the actor's role is below l.
func (g *Gate) Require(actor *Actor, l Level) error {
	if !actor.Authenticated() {
		return apperr.Unauthorized("authentication required")
	}
	if !actor.Has(l) {
		return apperr.Forbidden(l.String() + " role required")
	}
	return nil
}

// CheckoutTarget returns the beneficiary a checkout may be recorded against.
// Staff get what they asked for. Everyone else gets their own record; asking
// for a different one is refused.
func (g *Gate) CheckoutTarget(ctx context.Context, actor *Actor, requested int64) (int64, error) {
	if err := g.Require(actor, LevelSelf); err != nil {
		return 0, err
	}
	if actor.Has(LevelStaff) {
		if requested <= 0 {
			return 0, apperr.Invalid("beneficiary_id is required")
		}
		return requested, nil
	}

	own, err := g.linker.EnsureForAccount(ctx, *actor)
	if err != nil {
		return 0, err
	}
	if requested != 0 && requested != own {
		return 0, apperr.Forbidden("you can only check out to your own beneficiary record")
	}
	return own, nil
}

// CanViewBeneficiary allows staff to see anyone and other accounts to see
// only their own record.
func (g *Gate) CanViewBeneficiary(ctx context.Context, actor *Actor, beneficiaryID int64) error {
	if err := g.Require(actor, LevelSelf); err != nil {
		return err
	}
	if actor.Has(LevelStaff) {
		return nil
	}
	own, err := g.linker.EnsureForAccount(ctx, *actor)
	if err != nil {
		return err
	}
	if own != beneficiaryID {
		return apperr.Forbidden("you can only view your own transactions")
	}
	return nil
}
