package ledger

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"robostock-backend/internal/inventory/access"
	"robostock-backend/internal/platform/apperr"
	"robostock-backend/internal/platform/auth"
)

type Handler struct {
	svc  *Service
	gate *access.Gate
	log  *zap.Logger
}

func RegisterRoutes(r gin.IRoutes, svc *Service, gate *access.Gate, log *zap.Logger) {
	h := &Handler{svc: svc, gate: gate, log: log}
	self := auth.RequireLevel(gate, access.LevelSelf)
	staff := auth.RequireLevel(gate, access.LevelStaff)

	r.POST("/components/:id/checkout", self, h.Checkout)
	r.GET("/components/:id/transactions/open", self, h.ListOpenForComponent)
	r.GET("/beneficiaries/:id/transactions", self, h.ListForBeneficiary)

	r.POST("/transactions/:key/return", staff, h.Return)
	r.GET("/transactions/:key", self, h.Get)
}

func (h *Handler) Checkout(c *gin.Context) {
	componentID, ok := pathID(c)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		code := bindErrorCode(err)
		msg := "invalid json"
		if code == apperr.CodeInvalidQuantity {
			msg = "quantity must be a positive integer"
		}
		apperr.BadJSON(c, code, msg)
		return
	}

	actor := auth.ActorFrom(c)
	target, err := h.gate.CheckoutTarget(c.Request.Context(), actor, req.BeneficiaryID)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}

	note := ""
	if req.Note != nil {
		note = *req.Note
	}
	res, err := h.svc.Checkout(c.Request.Context(), *actor, componentID, target, req.Quantity, note)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.Header("Location", "/transactions/"+res.TransactionULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Return(c *gin.Context) {
	res, err := h.svc.ReturnByKey(c.Request.Context(), *auth.ActorFrom(c), c.Param("key"))
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Get は staff なら誰の取引でも、それ以外は自分の受取人レコードの取引のみ返す
func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.GetTransaction(c.Request.Context(), c.Param("key"))
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	if err := h.gate.CanViewBeneficiary(c.Request.Context(), auth.ActorFrom(c), res.BeneficiaryID); err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) ListOpenForComponent(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.svc.ListOpenForComponent(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res})
}

func (h *Handler) ListForBeneficiary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.gate.CanViewBeneficiary(c.Request.Context(), auth.ActorFrom(c), id); err != nil {
		apperr.Respond(c, h.log, err)
		return
	}

	f := Filter{
		Limit:  atoiDef(c.Query("limit"), 100),
		Offset: atoiDef(c.Query("offset"), 0),
	}
	if v := c.Query("status"); v != "" {
		st := Status(strings.ToUpper(v))
		f.Status = &st
	}
	res, err := h.svc.ListForBeneficiary(c.Request.Context(), id, f)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res})
}

// ---------- helpers ----------

// bindErrorCode reports a non-integer quantity as INVALID_QUANTITY.
func bindErrorCode(err error) apperr.Code {
	var te *json.UnmarshalTypeError
	if errors.As(err, &te) && te.Field == "quantity" {
		return apperr.CodeInvalidQuantity
	}
	return apperr.CodeInvalidArgument
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.BadJSON(c, apperr.CodeInvalidArgument, "id must be a positive number")
		return 0, false
	}
	return id, true
}

func atoiDef(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
