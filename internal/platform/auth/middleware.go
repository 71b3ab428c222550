package auth

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"robostock-backend/internal/inventory/access"
	"robostock-backend/internal/platform/apperr"
)

const CtxActorKey = "actor"

type TokenParser interface {
	ParseToken(ctx context.Context, tokenStr string) (*access.Actor, error)
}

// Authenticate reads "Authorization: Bearer <token>" and stores the actor in
// the gin context. A request without the header continues anonymously so
// public routes still work; a malformed or invalid token is rejected.
func Authenticate(p TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		if h == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(h, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(401, apperr.Body(apperr.CodeUnauthorized, "invalid Authorization header"))
			return
		}
		tokenStr := strings.TrimSpace(parts[1])
		if tokenStr == "" {
			c.AbortWithStatusJSON(401, apperr.Body(apperr.CodeUnauthorized, "empty token"))
			return
		}

		actor, err := p.ParseToken(c.Request.Context(), tokenStr)
		if err != nil {
			if apperr.IsUnauthorized(err) {
				c.AbortWithStatusJSON(401, apperr.Body(apperr.CodeUnauthorized, "invalid token"))
				return
			}
			apperr.Respond(c, nil, err)
			c.Abort()
			return
		}
		c.Set(CtxActorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor or nil.
func ActorFrom(c *gin.Context) *access.Actor {
	v, ok := c.Get(CtxActorKey)
	if !ok {
		return nil
	}
	a, _ := v.(*access.Actor)
	return a
}

// RequireLevel aborts the request unless the gate admits the actor at l.
func RequireLevel(g *access.Gate, l access.Level) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := g.Require(ActorFrom(c), l); err != nil {
			apperr.Respond(c, nil, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
