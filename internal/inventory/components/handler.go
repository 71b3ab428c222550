package components

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
	svc *Service
	log *zap.Logger
}

func RegisterRoutes(r gin.IRoutes, svc *Service, gate *access.Gate, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{svc: svc, log: log}
	staff := auth.RequireLevel(gate, access.LevelStaff)

	// categories
	r.GET("/categories", h.ListCategories)
	r.POST("/categories", staff, h.CreateCategory)

	// components
	r.GET("/components", h.List)
	r.GET("/components/export.csv", h.ExportCSV)
	r.GET("/components/:id", h.Get)
	r.POST("/components", staff, h.Create)
	r.PUT("/components/:id", staff, h.Update)
	r.DELETE("/components/:id", staff, h.Delete)
}

// ===== categories =====

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.BadJSON(c, apperr.CodeInvalidArgument, "invalid json")
		return
	}
	res, err := h.svc.CreateCategory(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListCategories(c *gin.Context) {
	res, err := h.svc.ListCategories(c.Request.Context())
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": res})
}

// ===== components =====

func (h *Handler) Create(c *gin.Context) {
	var req CreateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.BadJSON(c, apperr.CodeInvalidArgument, "invalid json or missing required fields")
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.Header("Location", "/components/"+strconv.FormatInt(res.ComponentID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	res, err := h.svc.Detail(c.Request.Context(), id)
	if err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) List(c *gin.Context) {
	p := Page{
		Limit:  atoiDef(c.Query("limit"), 50),
		Offset: atoiDef(c.Query("offset"), 0),
	}
	res, err := h.svc.List(c.Request.Context(), c.Query("q"), p)
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
	var req UpdateComponentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.BadJSON(c, apperr.CodeInvalidArgument, "invalid json")
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

// ExportCSV streams the (optionally filtered) catalog. ?encoding=sjis for Excel on Windows.
func (h *Handler) ExportCSV(c *gin.Context) {
	enc := c.DefaultQuery("encoding", EncodingUTF8)
	if _, err := encoderFor(enc); err != nil {
		apperr.Respond(c, h.log, err)
		return
	}
	charset := "utf-8"
	if enc == EncodingShiftJIS || enc == "cp932" {
		charset = "shift_jis"
	}
	c.Header("Content-Type", "text/csv; charset="+charset)
	c.Header("Content-Disposition", `attachment; filename="components.csv"`)
	c.Status(http.StatusOK)
	if err := h.svc.ExportCSV(c.Request.Context(), c.Writer, c.Query("q"), enc); err != nil {
		// ヘッダ送信後なのでログのみ
		h.log.Error("csv export failed", zap.Error(err))
	}
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
