// cmd/import/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/coral-ledger/internal/config"
	"github.com/javajoker/coral-ledger/internal/database"
	"github.com/javajoker/coral-ledger/internal/feeds"
	"github.com/javajoker/coral-ledger/internal/i18n"
	"github.com/javajoker/coral-ledger/internal/services"
	"github.com/javajoker/coral-ledger/internal/store"
)

func main() {
	var (
		dir    = flag.String("dir", "", "Directory holding the feed files (overrides FEEDS_DIR)")
		source = flag.String("source", "", "Feed source: local|s3 (overrides FEEDS_SOURCE)")
		dryRun = flag.Bool("dry-run", false, "Import into an in-memory store and only report")
		strict = flag.Bool("strict", false, "Exit non-zero when the imported ledger has integrity violations")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if *dir != "" {
		cfg.Feeds.Dir = *dir
	}
	if *source != "" {
		cfg.Feeds.Source = *source
	}
	if err := i18n.Initialize(cfg.I18n.LocalesPath, cfg.I18n.DefaultLocale); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize i18n")
	}

	var st store.Store
	if *dryRun || cfg.Server.StoreDriver == "memory" {
		st = store.NewMemoryStore()
	} else {
		db, err := database.Initialize(cfg.Database)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to initialize database")
		}
		defer database.Close(db)
		if err := database.RunMigrations(db); err != nil {
			logrus.WithError(err).Fatal("Failed to run migrations")
		}
		st = store.NewGormStore(db)
	}

	var feedSource feeds.Source
	switch cfg.Feeds.Source {
	case "s3":
		s3Store, err := feeds.NewS3StoreFromConfig(cfg.AWS)
		if err != nil {
			logrus.WithError(err).Fatal("Failed to open S3 feeds")
		}
		feedSource = s3Store
	case "local":
		feedSource = feeds.NewLocalSource(cfg.Feeds.Dir)
	default:
		logrus.Fatalf("unknown feed source %q", cfg.Feeds.Source)
	}

	ctx := context.Background()
	svc := services.New(cfg, st, feedSource, nil)

	summary, err := svc.Feeds.Import(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Import failed")
	}
	reports, err := svc.Shares.IntegrityAll(ctx)
	if err != nil {
		logrus.WithError(err).Fatal("Integrity check failed")
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	if err := out.Encode(map[string]interface{}{
		"summary":   summary,
		"integrity": reports,
	}); err != nil {
		logrus.WithError(err).Fatal("Failed to write summary")
	}

	if *strict && summary.IntegrityViolations > 0 {
		fmt.Fprintf(os.Stderr, "%d integrity violations\n", summary.IntegrityViolations)
		os.Exit(1)
	}
}
