package main

import (
	"database/sql"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/assettrack/internal/config"
	"github.com/crucial707/assettrack/internal/db"
	"github.com/crucial707/assettrack/internal/handlers"
	"github.com/crucial707/assettrack/internal/middleware"
	"github.com/crucial707/assettrack/internal/repo"
	"github.com/crucial707/assettrack/internal/scheduler"
)

func main() {

	// Load configuration
	cfg := config.Load()

	setupLogger(cfg.LogFormat)

	if cfg.Env == "prod" && cfg.JWTSecret == "supersecretkey" {
		log.Fatal("JWT_SECRET must be set in prod")
	}

	// Connect to database FIRST
	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
	)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	database.SetMaxOpenConns(cfg.DBMaxOpenConns)
	database.SetMaxIdleConns(cfg.DBMaxIdleConns)

	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	// Schema bootstrap. The repo layer assumes both tables exist.
	if err := db.Run(cfg.DatabaseURL()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Background inventory gauges
	cronRunner, err := scheduler.Run(database, cfg.MetricsCron)
	if err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer cronRunner.Stop()

	r := newRouter(database, cfg)

	slog.Info("starting api", "port", cfg.Port)
	if cfg.TLSCertFile != "" && cfg.TLSKeyFile != "" {
		err = http.ListenAndServeTLS(":"+cfg.Port, cfg.TLSCertFile, cfg.TLSKeyFile, r)
	} else {
		err = http.ListenAndServe(":"+cfg.Port, r)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// newRouter builds the full API router over the given database handle.
// Split from main so integration tests can mount it on a sqlmock-backed DB.
func newRouter(database *sql.DB, cfg config.Config) chi.Router {
	audit := repo.NewAuditLog(database)
	store := repo.NewAssetStore(database, audit)
	gateway := repo.NewGateway(database, store, audit)

	assetHandler := &handlers.AssetHandler{Store: store, Gateway: gateway, Audit: audit}
	authHandler := &handlers.AuthHandler{UserRepo: repo.NewUserRepo(database), Secret: []byte(cfg.JWTSecret)}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.Prometheus)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Auth (rate limited, no token required)
	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
	})

	// Assets (token required; the username claim becomes the audit actor)
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Post("/assets", assetHandler.CreateAsset)
		r.Get("/assets/{tag}", assetHandler.GetAsset)
		r.Patch("/assets/{tag}", assetHandler.UpdateAsset)
		r.Post("/assets/{tag}/retire", assetHandler.RetireAsset)
		r.Post("/assets/{tag}/transition", assetHandler.TransitionCustodyState)
		r.Get("/assets/{tag}/events", assetHandler.ListAssetEvents)
	})

	return r
}

func setupLogger(format string) {
	if format == "json" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
		return
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}
