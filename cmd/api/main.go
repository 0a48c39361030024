package main

import (
	"context"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AlibekovAA/civic-reports-backend/internal/auth"
	"github.com/AlibekovAA/civic-reports-backend/internal/category"
	"github.com/AlibekovAA/civic-reports-backend/internal/comment"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/config"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/constants"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/crypto"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/db"
	commonhttp "github.com/AlibekovAA/civic-reports-backend/internal/common/http"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/logger"
	"github.com/AlibekovAA/civic-reports-backend/internal/common/server"
	"github.com/AlibekovAA/civic-reports-backend/internal/contact"
	"github.com/AlibekovAA/civic-reports-backend/internal/report"
	"github.com/AlibekovAA/civic-reports-backend/internal/storage"
	"github.com/AlibekovAA/civic-reports-backend/internal/user"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_DIR"), "civic-reports", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	ctx := context.Background()

	if err := db.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	idGen := crypto.NewUUIDGenerator()

	users := user.NewPostgresRepository(pool, idGen)
	tokens := auth.NewPostgresTokenRepository(pool)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, tokens, idGen)
	rotator := auth.NewRotator(tokens, users, issuer, idGen, log)
	authService := auth.NewService(users, tokens, issuer, rotator, log)

	gate := auth.NewGate(log,
		auth.NewBearerResolver(issuer, users),
		auth.NewCookieResolver(cfg.Cookie.Name, tokens, users),
	)

	var providers []auth.OAuthProvider
	if cfg.Google.Enabled() {
		providers = append(providers, auth.NewGoogleProvider(cfg.Google))
	}
	if cfg.GitHub.Enabled() {
		providers = append(providers, auth.NewGitHubProvider(cfg.GitHub))
	}
	if len(providers) == 0 {
		log.Warn("no oauth providers configured, login is unavailable")
	}

	stateSigner := auth.NewStateSigner(cfg.JWTSecret, constants.DefaultOAuthStateTTL)

	files, err := storage.New(ctx, cfg.Storage, pool, log)
	if err != nil {
		log.Fatalf("failed to initialize file storage: %v", err)
	}
	log.Infof("file storage backend: %s", files.Backend())

	reports := report.NewPostgresRepository(pool)
	reportService := report.NewService(reports, files, idGen, log)

	comments := comment.NewPostgresRepository(pool)
	commentService := comment.NewService(comments, idGen)

	categories := category.NewPostgresRepository(pool, idGen)
	contacts := contact.NewPostgresRepository(pool, idGen)

	mux := http.NewServeMux()
	wrap := commonhttp.WithTimeout(cfg.RequestTimeout)

	auth.NewHandler(authService, issuer, users, gate, providers, stateSigner, cfg.Cookie, log).Register(mux, wrap)
	report.NewHandler(reportService, gate, log).Register(mux, wrap)
	comment.NewHandler(commentService, gate).Register(mux, wrap)
	category.NewHandler(categories, gate).Register(mux, wrap)
	contact.NewHandler(contacts, gate).Register(mux, wrap)

	mux.HandleFunc("GET /health", commonhttp.HealthHandler(pool))
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = commonhttp.MetricsMiddleware(handler)
	handler = commonhttp.SecurityHeadersMiddleware(handler)
	handler = commonhttp.MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)(handler)
	handler = commonhttp.TraceIDMiddleware(handler)
	handler = commonhttp.RecoveryMiddleware(log)(handler)

	cleanupCtx, cancelCleanup := context.WithCancel(ctx)
	cleanup := auth.NewCleanupWorker(tokens, cfg.TokenRetention, log)
	go cleanup.Run(cleanupCtx)

	srv := server.New(":"+cfg.HTTPPort, handler, log)
	srv.OnShutdown(func(ctx context.Context) {
		cancelCleanup()
	})

	if err := srv.Run(); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
