package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/leadflow/leadflow-backend/internal/ads"
	"github.com/leadflow/leadflow-backend/internal/api/rest"
	"github.com/leadflow/leadflow-backend/internal/audit"
	"github.com/leadflow/leadflow-backend/internal/auth"
	"github.com/leadflow/leadflow-backend/internal/config"
	"github.com/leadflow/leadflow-backend/internal/models"
	"github.com/leadflow/leadflow-backend/internal/repository"
	"github.com/leadflow/leadflow-backend/internal/session"
	"github.com/leadflow/leadflow-backend/migrations"
)

func main() {
	log.Println("🚀 Leadflow Backend starting...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if cfg.JWTSecret == "" {
		log.Fatal("❌ LEADFLOW_JWT_SECRET must be set")
	}

	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to initialize database: %v", err)
	}
	defer store.Close()

	schema, err := migrations.FS.ReadFile("001_initial_schema.sql")
	if err != nil {
		log.Fatalf("❌ Failed to read embedded migrations: %v", err)
	}
	if err := store.RunMigrations(string(schema)); err != nil {
		log.Fatalf("❌ Failed to run migrations: %v", err)
	}
	log.Println("✅ Database migrations completed")

	if err := seedInitialAdmin(context.Background(), store); err != nil {
		log.Fatalf("❌ Failed to seed initial admin: %v", err)
	}

	sessions := session.NewManager(store, cfg.SessionTTL())
	auditor := audit.NewRecorder(store, nil)
	limiter := auth.NewLoginLimiter(time.Duration(cfg.LoginWindowMin)*time.Minute, cfg.LoginMaxAttempts)

	var campaigns *rest.CampaignsHandler
	if cfg.MarketingAPIBaseURL != "" {
		client := ads.NewClient(cfg.MarketingAPIBaseURL, cfg.MarketingAPIToken,
			time.Duration(cfg.MarketingAPITimeoutSec)*time.Second)
		campaigns = rest.NewCampaignsHandler(client, auditor)
		log.Println("✅ Campaign API client configured")
	} else {
		log.Println("⚠️  Marketing API not configured; campaign routes disabled")
	}

	handler := rest.NewRouter(cfg, sessions, rest.Handlers{
		Auth:      rest.NewAuthHandler(store, cfg, limiter, sessions, auditor),
		Agents:    rest.NewAgentsHandler(store, cfg, auditor),
		Leads:     rest.NewLeadsHandler(store, auditor),
		Campaigns: campaigns,
		Healthz:   rest.NewHealthzHandler(store),
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      c.Handler(handler),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on port %d", cfg.Port)
		log.Printf("📡 API available at http://localhost:%d/api/v1", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("⚠️  Graceful shutdown failed: %v", err)
	}
	log.Println("👋 Server stopped")
}

func openStore(cfg *config.Config) (*repository.Store, error) {
	switch cfg.DatabaseDriver {
	case "postgres":
		return repository.NewPostgresStore(cfg.DatabaseDSN)
	case "sqlite", "":
		return repository.NewSQLiteStore(cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// seedInitialAdmin creates a bootstrap admin account when the agents table is
// empty. Credentials come from LEADFLOW_ADMIN_AGENT_ID / LEADFLOW_ADMIN_PASSWORD;
// without them a fresh database simply starts with no accounts.
func seedInitialAdmin(ctx context.Context, store *repository.Store) error {
	agentID := os.Getenv("LEADFLOW_ADMIN_AGENT_ID")
	password := os.Getenv("LEADFLOW_ADMIN_PASSWORD")
	if agentID == "" || password == "" {
		return nil
	}
	agents, err := store.ListAgents(ctx)
	if err != nil {
		return err
	}
	if len(agents) > 0 {
		return nil
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.Agent{
		AgentCode:    agentID,
		Email:        os.Getenv("LEADFLOW_ADMIN_EMAIL"),
		PasswordHash: hash,
		FullName:     "Initial Administrator",
		Role:         auth.RoleAdmin,
		IsActive:     true,
	}
	if err := store.CreateAgent(ctx, admin); err != nil {
		return err
	}
	log.Printf("✅ Seeded initial admin account %s", agentID)
	return nil
}
