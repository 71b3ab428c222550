package beneficiaries

import (
	"net/http"
	"strconv"

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
	staff := auth.RequireLevel(gate, access.LevelStaff)

	r.GET("/beneficiaries", staff, h.List)
	r.POST("/beneficiaries", staff, h.Create)
	r.GET("/beneficiaries/:id", staff, h.Get)
	r.PUT("/beneficiaries/:id", staff, h.Update)
	r.DELETE("/beneficiaries/:id", staff, h.Delete)

	// 自分の受取人レコード（初回アクセス時に自動作成）
	r.GET("/me/beneficiary", auth.RequireLevel(gate, access.LevelSelf), h.Mine)
}

func (h *Handler) Create(c *gin.Context) {
	var req BeneficiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.BadJSON(c, apperr.CodeInvalidArgument, "invalid json or missing required fields")
		return
	}
	res, err := h.svc.Create(c.Request.Context(), *auth.ActorFrom(c), req)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.Header("Location", "/beneficiaries/"+strconv.FormatInt(res.BeneficiaryID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) List(c *gin.Context) {
	f := Filter{Query: c.Query("q")}
	if v := c.Query("category"); v != "" {
		cat := Category(v)
		f.Category = &cat
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
	}
	res, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req BeneficiaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.BadJSON(c, apperr.CodeInvalidArgument, "invalid json or missing required fields")
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Mine(c *gin.Context) {
	res, err := h.svc.Mine(c.Request.Context(), *auth.ActorFrom(c))
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperr.BadJSON(c, apperr.CodeInvalidArgument, "id must be a positive number")
		return 0, false
	}
	return id, true
}

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}
