package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"certifynow/internal/audit"
	auditstore "certifynow/internal/audit/store"
	"certifynow/internal/certificate"
	"certifynow/internal/certificate/fingerprint"
	certhandler "certifynow/internal/certificate/handler"
	certmetrics "certifynow/internal/certificate/metrics"
	"certifynow/internal/certificate/qr"
	certstore "certifynow/internal/certificate/store"
	"certifynow/internal/platform/config"
	"certifynow/internal/platform/httpserver"
	"certifynow/internal/platform/logger"
	"certifynow/internal/platform/postgres"
	"certifynow/internal/platform/redis"
	"certifynow/internal/platform/token"
	httptransport "certifynow/internal/transport/http"
	"certifynow/internal/verification"
	verifhandler "certifynow/internal/verification/handler"
	verifmetrics "certifynow/internal/verification/metrics"
	verifstore "certifynow/internal/verification/store"
)

const (
	shutdownTimeout = 10 * time.Second
	auditInboxSize  = 256
)

func main() {
	if err := run(); err != nil && !errors.Is(err, context.Canceled) {
		logger.New().Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.FromEnv()
	log := logger.New()

	var db *sql.DB
	var (
		certs    certificate.Store
		attempts verification.AttemptStore
		entries  audit.Store
	)
	if cfg.PostgresDSN != "" {
		var err error
		db, err = postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
		certs = certstore.NewPostgres(db)
		attempts = verifstore.NewPostgres(db)
		entries = auditstore.NewPostgres(db)
		log.Info("postgres storage configured")
	} else {
		certs = certstore.NewInMemory()
		attempts = verifstore.NewInMemory()
		entries = auditstore.NewInMemory()
		log.Warn("no postgres DSN configured, using in-memory storage")
	}

	cache, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
		log.Info("redis statistics cache configured")
	}

	engine := fingerprint.New()
	recorder := audit.NewRecorder(entries)
	inbox := make(chan audit.Entry, auditInboxSize)

	certService := certificate.NewService(certs, engine, qr.New(cfg.VerifyBaseURL), certmetrics.New(), log)
	verifService := verification.NewService(
		certs, attempts, recorder, engine,
		cache, config.StatsCacheTTL,
		verifmetrics.New(), log,
	)
	tokens := token.NewService(cfg.JWTSigningKey, "certifynow", "certifynow-api")

	router := httptransport.NewRouter(httptransport.Deps{
		Certificates: certhandler.NewHandler(certService, inbox, log),
		Verification: verifhandler.NewHandler(verifService, log),
		Tokens:       tokens,
		DB:           db,
		Cache:        cache,
		Logger:       log,
	})
	server := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		err := audit.NewWorker(entries, inbox).Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
