// Package server wires the inventory services into one gin engine.
package server

import (
	"database/sql"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"robostock-backend/internal/docs"
	"robostock-backend/internal/inventory/access"
	"robostock-backend/internal/inventory/beneficiaries"
	"robostock-backend/internal/inventory/components"
	"robostock-backend/internal/inventory/ledger"
	"robostock-backend/internal/platform/auth"
	"robostock-backend/internal/platform/db"
	"robostock-backend/internal/platform/logger"
)

const APIPrefix = "/api/v1"

// NewRouter builds the engine with every route under /api/v1.
func NewRouter(cfg *db.Config, conn *sql.DB, log *zap.Logger) *gin.Engine {
	if cfg.Mode == "dev" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(logger.Named(log, "http")))
	_ = r.SetTrustedProxies(nil)

	if cfg.Mode == "dev" {
		// CORS（開発中のみ必要）
		origins := cfg.CORS.AllowOrigins
		if len(origins) == 0 {
			origins = []string{"http://localhost:3000"}
		}
		r.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", logger.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", "Location", logger.RequestIDHeader},
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowCredentials: true,
		}))
	}

	// ヘルス
	r.GET("/healthz", func(c *gin.Context) {
		if err := conn.PingContext(c.Request.Context()); err != nil {
			c.String(http.StatusServiceUnavailable, "db unavailable")
			return
		}
		c.String(http.StatusOK, "ok")
	})
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.InstanceName(docs.SwaggerInfo.InstanceName())))

	authSvc := auth.NewService(conn, cfg.Auth, logger.Named(log, "auth"))
	benSvc := beneficiaries.NewService(conn, logger.Named(log, "beneficiaries"))
	compSvc := components.NewService(conn, logger.Named(log, "components"))
	ledgerSvc := ledger.NewService(conn, logger.Named(log, "ledger"))
	compSvc.SetLoanLister(ledgerSvc)

	gate := access.NewGate(benSvc)

	api := r.Group(APIPrefix)
	api.Use(auth.Authenticate(authSvc))
	auth.RegisterRoutes(api, authSvc, gate, logger.Named(log, "auth"))
	components.RegisterRoutes(api, compSvc, gate, logger.Named(log, "components"))
	beneficiaries.RegisterRoutes(api, benSvc, gate, logger.Named(log, "beneficiaries"))
	ledger.RegisterRoutes(api, ledgerSvc, gate, logger.Named(log, "ledger"))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})
	return r
}
