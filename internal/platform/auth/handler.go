package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"robostock-backend/internal/inventory/access"
	"robostock-backend/internal/platform/apperr"
)

type Handler struct {
	svc  *Service
	gate *access.Gate
	log  *zap.Logger
}

func RegisterRoutes(r gin.IRoutes, svc *Service, gate *access.Gate, log *zap.Logger) {
	h := &Handler{svc: svc, gate: gate, log: log}
	r.POST("/auth/login", h.Login)
	r.GET("/me", h.Me)

	// 管理者のみ
	r.GET("/accounts", RequireLevel(gate, access.LevelAdmin), h.ListAccounts)
	r.POST("/accounts", RequireLevel(gate, access.LevelAdmin), h.CreateAccount)
	r.DELETE("/accounts/:id", RequireLevel(gate, access.LevelAdmin), h.DeleteAccount)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.BadJSON(c, apperr.CodeInvalidArgument, "invalid request")
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.ID, req.Password)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Me(c *gin.Context) {
	actor := ActorFrom(c)
	if err := h.gate.Require(actor, access.LevelSelf); err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	res, err := h.svc.GetAccount(c.Request.Context(), actor.AccountID)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListAccounts(c *gin.Context) {
	res, err := h.svc.ListAccounts(c.Request.Context())
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res, "total": len(res)})
}

func (h *Handler) CreateAccount(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.BadJSON(c, apperr.CodeInvalidArgument, "invalid request")
		return
	}
	res, err := h.svc.CreateAccount(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.Header("Location", "/accounts/"+res.ID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) DeleteAccount(c *gin.Context) {
	if err := h.svc.DeleteAccount(c.Request.Context(), *ActorFrom(c), c.Param("id")); err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
