package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/truthlens/internal/application"
	"github.com/bryanwahyu/truthlens/internal/application/assess"
	"github.com/bryanwahyu/truthlens/internal/application/research"
	"github.com/bryanwahyu/truthlens/internal/config"
	"github.com/bryanwahyu/truthlens/internal/domain/usage"
	"github.com/bryanwahyu/truthlens/internal/infra/ai/registry"
	mysqlp "github.com/bryanwahyu/truthlens/internal/infra/db/mysql"
	"github.com/bryanwahyu/truthlens/internal/infra/db/postgres"
	"github.com/bryanwahyu/truthlens/internal/infra/httpserver"
	"github.com/bryanwahyu/truthlens/internal/infra/scrape"
	"github.com/bryanwahyu/truthlens/internal/logging"
	"github.com/bryanwahyu/truthlens/internal/middleware"
)

const sweepInterval = 5 * time.Minute

// ledger is a usage repository that can create its own table.
type ledger interface {
	usage.Repository
	EnsureSchema(ctx context.Context) error
}

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		logrus.Fatalf("config load error: %v", err)
	}

	log := logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})

	ctx := context.Background()
	checkers := map[string]middleware.HealthChecker{}

	// optional usage ledger
	db, repo, err := openLedger(ctx, cfg)
	if err != nil {
		log.Fatalf("ledger init error: %v", err)
	}
	if db != nil {
		defer db.Close()
		checkers["ledger"] = &middleware.DatabaseHealthChecker{DB: db}
		log.WithField("driver", cfg.Ledger.Driver).Info("usage ledger enabled")
	}

	// init dispatcher
	httpClient := &http.Client{Timeout: cfg.Providers.Timeout}
	svc := assess.NewService(assess.Options{
		Catalog:     cfg.Providers.Catalog,
		Credentials: cfg.Credentials,
		Completers:  registry.Default(httpClient, cfg.Providers.Timeout),
		Ledger:      repo,
		Clock:       application.SystemClock{},
		Logger:      log,
		Timeout:     cfg.Providers.Timeout,
	})
	checkers["credentials"] = &middleware.CredentialHealthChecker{Configured: svc.Configured}
	log.WithField("configured", svc.Configured()).Infof("loaded %d providers", len(svc.Providers()))

	researcher := &research.Service{
		LLM:        svc,
		Scraper:    scrape.New(cfg.Research.ScrapeURL, cfg.Research.ScrapeKey, cfg.Providers.Timeout),
		MaxSources: cfg.Research.MaxSources,
		AllowURL:   middleware.ValidateURL,
		Logger:     log,
	}

	// rate limiting
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillRate)
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go func() {
		t := time.NewTicker(sweepInterval)
		defer t.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-t.C:
				limiter.Sweep(sweepInterval)
			}
		}
	}()

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	mux.Use(middleware.APIKeyAuth(cfg.Server.APIKeys))
	mux.Use(middleware.RateLimitMiddleware(limiter))

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/live", middleware.LivenessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)
	mux.Mount("/", httpserver.NewRouter(svc, researcher, repo))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// research chains several provider calls
		WriteTimeout: 4*cfg.Providers.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Infof("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Errorf("shutdown error: %v", err)
	}
}

// openLedger connects the configured ledger. With no driver it returns a
// nil repository and the ledger endpoints answer 404.
func openLedger(ctx context.Context, cfg *config.Config) (*sql.DB, usage.Repository, error) {
	var (
		db   *sql.DB
		repo ledger
		err  error
	)
	switch cfg.Ledger.Driver {
	case "":
		return nil, nil, nil
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		repo = mysqlp.NewUsageRepository(db)
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		repo = postgres.NewUsageRepository(db)
	default:
		return nil, nil, fmt.Errorf("unsupported ledger driver %q", cfg.Ledger.Driver)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}
