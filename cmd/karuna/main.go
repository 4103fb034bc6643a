package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Strob0t/Karuna/internal/adapter/gemini"
	cfhttp "github.com/Strob0t/Karuna/internal/adapter/http"
	"github.com/Strob0t/Karuna/internal/adapter/memory"
	"github.com/Strob0t/Karuna/internal/adapter/mongodb"
	cfnats "github.com/Strob0t/Karuna/internal/adapter/nats"
	cfotel "github.com/Strob0t/Karuna/internal/adapter/otel"
	"github.com/Strob0t/Karuna/internal/adapter/pdftext"
	"github.com/Strob0t/Karuna/internal/config"
	"github.com/Strob0t/Karuna/internal/connguard"
	"github.com/Strob0t/Karuna/internal/logger"
	"github.com/Strob0t/Karuna/internal/middleware"
	"github.com/Strob0t/Karuna/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:], os.Stdin, os.Stdout); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, closeLog := logger.New(cfg.Logging)
	defer closeLog.Close()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"mongo_database", cfg.Mongo.Database,
		"cache_ttl", cfg.Cache.TTL,
		"nats_enabled", cfg.NATS.URL != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---

	shutdownOTel, err := cfotel.Setup(ctx, cfg.OTel)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := cfotel.NewMetrics()
	if err != nil {
		return fmt.Errorf("otel metrics: %w", err)
	}

	// --- Infrastructure ---

	// MongoDB is dialed on the first query, not here.
	guard := connguard.New(mongodb.Dial(&cfg.Mongo, log), log)
	store := mongodb.NewStore(guard, cfg.Mongo.Database)
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := guard.Close(sctx); err != nil {
			slog.Warn("mongo disconnect", "error", err)
		}
	}()

	cacheSvc := service.NewCacheService(memory.New(memory.WithTTL(cfg.Cache.TTL)), log)
	cacheSvc.SetMetrics(metrics)

	if cfg.NATS.URL != "" {
		bus, err := cfnats.Connect(cfg.NATS.URL, cfg.NATS.Subject, cfg.Logging.Service)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = bus.Close() }()

		cacheSvc.SetPublisher(bus, uuid.NewString())
		unsubscribe, err := bus.Subscribe(cacheSvc)
		if err != nil {
			return fmt.Errorf("nats subscribe: %w", err)
		}
		defer func() { _ = unsubscribe() }()
		slog.Info("cache invalidation bus enabled", "origin", cacheSvc.Origin())
	}

	// --- Generative model ---

	if cfg.Gemini.APIKey == "" {
		slog.Warn("GEMINI_API_KEY not set, diagnosis and chat requests will fail")
	}
	model := gemini.NewClient(cfg.Gemini, cfg.Breaker)
	model.SetMetrics(metrics)

	// --- Services ---

	chatSvc := service.NewChatService(memory.New(memory.WithTTL(cfg.Chat.SessionTTL)), model.WithOp("chat"), log)

	handlers := &cfhttp.Handlers{
		Directory: service.NewDirectoryService(store, cacheSvc),
		Medicines: service.NewMedicineService(store),
		Students:  service.NewStudentService(store, cacheSvc),
		Diagnosis: service.NewDiagnosisService(model.WithOp("diagnosis")),
		Chat:      chatSvc,
		Reports:   service.NewReportService(pdftext.NewExtractor(), model.WithOp("report")),
		Cache:     cacheSvc,
		DB:        store,
	}

	// --- HTTP ---

	limiter := middleware.NewRateLimiter(cfg.Rate.RequestsPerSecond, cfg.Rate.Burst)

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(cfotel.HTTPMiddleware(cfg.OTel.ServiceName))
	r.Use(middleware.RequestID)
	r.Use(cfhttp.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cfhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(cfhttp.SecurityHeaders)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))

	cfhttp.MountRoutes(r, handlers, limiter)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.RequestTimeout + 10*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		chatSvc.RunSweeper(gctx, cfg.Chat.SweepInterval)
		return nil
	})

	limiter.StartCleanup(gctx, time.Minute, 10*time.Minute)

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	return g.Wait()
}
