// cmd/server/main.go
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

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/coral-ledger/internal/config"
	"github.com/javajoker/coral-ledger/internal/database"
	"github.com/javajoker/coral-ledger/internal/feeds"
	"github.com/javajoker/coral-ledger/internal/i18n"
	"github.com/javajoker/coral-ledger/internal/router"
	"github.com/javajoker/coral-ledger/internal/services"
	"github.com/javajoker/coral-ledger/internal/store"
)

func setupLogging(cfg *config.Config) {
	if cfg.Log.Format == "json" || (cfg.Log.Format == "" && cfg.IsProduction()) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Log.Level)
	if err != nil {
		logrus.WithField("level", cfg.Log.Level).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// openStore returns the configured store and a func releasing it.
func openStore(cfg *config.Config) (store.Store, func(), error) {
	if cfg.Server.StoreDriver == "memory" {
		logrus.Warn("Using in-memory store, data is lost on restart")
		return store.NewMemoryStore(), func() {}, nil
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		database.Close(db)
		return nil, nil, err
	}
	return store.NewGormStore(db), func() { database.Close(db) }, nil
}

// openFeeds picks where legacy feeds are read from and where reports go.
// Reports follow the feed source.
func openFeeds(cfg *config.Config) (feeds.Source, feeds.Sink, error) {
	if cfg.Feeds.Source == "s3" {
		s3Store, err := feeds.NewS3StoreFromConfig(cfg.AWS)
		if err != nil {
			return nil, nil, err
		}
		return s3Store, s3Store, nil
	}
	local := feeds.NewLocalSource(cfg.Feeds.Dir)
	return local, local, nil
}

func startOverdueSweep(cfg *config.Config, svc *services.Services) (*cron.Cron, error) {
	scheduler := cron.New()
	_, err := scheduler.AddFunc(cfg.Ledger.OverdueSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		marked, err := svc.Invoices.MarkOverdue(ctx, time.Now().UTC())
		if err != nil {
			logrus.WithError(err).Error("Overdue sweep failed")
			return
		}
		if marked > 0 {
			logrus.WithField("marked", marked).Info("Overdue sweep completed")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_OVERDUE_SCHEDULE %q: %w", cfg.Ledger.OverdueSchedule, err)
	}
	scheduler.Start()
	return scheduler, nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	setupLogging(cfg)

	// Initialize i18n
	if err := i18n.Initialize(cfg.I18n.LocalesPath, cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	st, closeStore, err := openStore(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open store")
	}
	defer closeStore()

	source, sink, err := openFeeds(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to open feeds")
	}

	svc := services.New(cfg, st, source, sink)
	if !svc.Payments.Enabled() {
		logrus.Warn("STRIPE_SECRET_KEY not set, payment endpoints are disabled")
	}

	if cfg.Server.SeedFromFeeds {
		summary, err := svc.Feeds.Import(context.Background())
		if err != nil {
			logrus.WithError(err).Fatal("Failed to seed from feeds")
		}
		logrus.WithFields(logrus.Fields{
			"source":     summary.Source,
			"assets":     summary.AssetsChecked,
			"violations": summary.IntegrityViolations,
		}).Info("Seeded store from feeds")
	}

	if cfg.Ledger.OverdueEnabled {
		scheduler, err := startOverdueSweep(cfg, svc)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to schedule overdue sweep")
		}
		defer func() { <-scheduler.Stop().Done() }()
	}

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := router.Initialize(cfg, svc)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logrus.WithField("addr", srv.Addr).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Error("Server forced to shutdown")
	}

	logrus.Info("Server exited")
}
