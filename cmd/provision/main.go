// Command provision applies the schema and makes sure an admin account exists.
// It is safe to run on every deploy.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go.uber.org/zap"

	"robostock-backend/internal/platform/auth"
	"robostock-backend/internal/platform/db"
	"robostock-backend/internal/platform/logger"
)

func main() {
	configPath := flag.String("config", db.DefaultConfigPath, "path to config.yaml")
	adminID := flag.String("admin", envOr("ROBOSTOCK_ADMIN_ID", "admin"), "admin account id")
	adminName := flag.String("name", envOr("ROBOSTOCK_ADMIN_NAME", "Administrator"), "admin display name")
	skipAdmin := flag.Bool("schema-only", false, "apply the schema and exit")
	flag.Parse()

	cfg, err := db.LoadConfig(*configPath)
	if err != nil {
		panic(err)
	}
	log := logger.Must(logger.New(cfg.Mode)).Named("provision")
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	conn, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		log.Fatal("db connect failed", zap.Error(err))
	}
	defer conn.Close()

	if err := db.Migrate(ctx, conn); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}
	log.Info("schema applied", zap.String("db", cfg.DB.DBName))
	if *skipAdmin {
		return
	}

	// パスワードはフラグに残さない
	password := os.Getenv("ROBOSTOCK_ADMIN_PASSWORD")
	if password == "" {
		log.Fatal("ROBOSTOCK_ADMIN_PASSWORD must be set")
	}

	svc := auth.NewService(conn, cfg.Auth, log)
	created, err := svc.EnsureSuperuser(ctx, *adminID, password, *adminName)
	if err != nil {
		log.Fatal("ensure admin failed", zap.Error(err))
	}
	log.Info("admin account ready", zap.String("id", *adminID), zap.Bool("created", created))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
