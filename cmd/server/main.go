package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Clark-Hu/campus-catalog/internal/config"
	httpserver "github.com/Clark-Hu/campus-catalog/internal/http"
	"github.com/Clark-Hu/campus-catalog/internal/ratelimit"
	"github.com/Clark-Hu/campus-catalog/internal/rating"
	"github.com/Clark-Hu/campus-catalog/internal/repository"
	"github.com/Clark-Hu/campus-catalog/internal/store"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := configureLogger(log, cfg); err != nil {
		return err
	}
	log.Info("starting campus-catalog")
	defer log.Info("shutdown complete")

	if cfg.DBAutoMigrate {
		if err := store.Migrate(cfg.DBURL, log); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 log,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer st.Close()

	repo := repository.New(st)
	agg := rating.NewAggregator(repo.EventRatings, rating.Options{
		MaxWorkers:   cfg.RatingMaxWorkers,
		FetchTimeout: time.Duration(cfg.RatingFetchTimeoutMs) * time.Millisecond,
		Logger:       log.WithField("component", "rating"),
	})

	server := httpserver.New(cfg, httpserver.Deps{
		Courses:    repo.Courses,
		Events:     repo.Events,
		Ratings:    repo.EventRatings,
		Aggregator: agg,
		Health:     st,
		Limiter:    ratelimit.NewLimiter(cfg.RateLimitBurst, 10*time.Minute, cfg.RateLimitRPS),
	}, log)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			serverErrCh <- err
			return
		}
		serverErrCh <- nil
	}()

	var serveErr error
	select {
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr = fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Warn("graceful shutdown error")
	}
	return serveErr
}

func configureLogger(log *logrus.Logger, cfg config.Config) error {
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("config: LOG_LEVEL: %w", err)
	}
	log.SetLevel(level)
	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	return nil
}
