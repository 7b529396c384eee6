package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexanderramin/comply/internal/api"
	"github.com/alexanderramin/comply/internal/cli"
	"github.com/alexanderramin/comply/internal/db"
	"github.com/alexanderramin/comply/internal/repository"
	"github.com/alexanderramin/comply/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() (err error) {
	// Determine DB path: env var or default ~/.comply/comply.db
	dbPath := os.Getenv("COMPLY_DB")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("finding home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".comply", "comply.db")
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	cfg := api.LoadConfig()

	metrics := api.NewMetricsObserver()
	observers := api.MultiObserver{metrics}
	var useCases []service.UseCaseObserver
	if cfg.LogCalls {
		observers = append(observers, api.NewLogObserver(os.Stderr))
		useCases = append(useCases, service.NewLogUseCaseObserver(os.Stderr))
	}
	if cfg.MetricsFile != "" {
		defer func() {
			if werr := metrics.WriteFile(cfg.MetricsFile); werr != nil && err == nil {
				err = fmt.Errorf("writing metrics: %w", werr)
			}
		}()
	}

	client := api.NewClient(cfg, api.StaticToken(cfg.Token), observers)

	// Wire repositories
	snapshotRepo := repository.NewSQLiteSnapshotRepo(database)
	submissionRepo := repository.NewSQLiteSubmissionRepo(database)
	saveLogRepo := repository.NewSQLiteSaveLogRepo(database)

	// Wire unit of work for the local submission and save logs
	uow := db.NewSQLiteUnitOfWork(database)

	app := &cli.App{
		Catalogue:      service.NewCatalogueService(client, snapshotRepo, useCases...),
		Assignments:    service.NewAssignmentService(client, uow, useCases...),
		Tracking:       service.NewTrackingService(client, uow, useCases...),
		Reports:        service.NewReportService(client, useCases...),
		History:        service.NewHistoryService(submissionRepo, saveLogRepo),
		DefaultVariant: cfg.Variant,
	}

	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
