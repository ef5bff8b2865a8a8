package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/config"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/domain/recurrence"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/events"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/platform/postgres"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/scheduler"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/service"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/service/followup"
	"github.com/hendrik-brandlapp/MOTHERSHIP-PROSPECTING-sub001/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	// Configuration
	config *config.Config

	// Core services
	logger *slog.Logger
	db     *sql.DB

	// Stores (using interfaces for proper abstraction)
	taskStore     store.TaskStore
	claimStore    store.ClaimStore
	prospectStore store.ProspectStore

	// Service interfaces
	taskService       service.TaskService
	followupGenerator followup.Generator
	recurrenceService recurrence.Service

	// Event system
	eventEmitter events.EventEmitter

	// Background scan
	scheduler *scheduler.Scheduler
}

// newApplication creates a new application instance with all dependencies initialized.
// It accepts core dependencies like configuration, logger, and database connection that
// must be established before application initialization.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	// Initialize stores
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.claimStore = postgres.NewPostgresClaimStore(db, logger)
	app.prospectStore = postgres.NewPostgresProspectStore(db, logger)

	// Initialize event emitter
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)

	// Initialize recurrence scheduling service
	app.recurrenceService = recurrence.NewDefaultService()

	// Create the repository adapters the lifecycle service depends on
	taskRepoAdapter := service.NewTaskRepositoryAdapter(app.taskStore, app.db)
	prospectRepoAdapter := service.NewProspectRepositoryAdapter(app.prospectStore)

	// Initialize task lifecycle service
	var err error
	app.taskService, err = service.NewTaskService(
		taskRepoAdapter,
		prospectRepoAdapter,
		app.eventEmitter,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}

	// Initialize the follow-up generator over its own transactional adapters
	app.followupGenerator, err = followup.NewGenerator(
		followup.NewTaskRepositoryAdapter(app.taskStore, app.db),
		followup.NewClaimRepositoryAdapter(app.claimStore),
		followup.NewProspectRepositoryAdapter(app.prospectStore),
		app.recurrenceService,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create follow-up generator: %w", err)
	}

	// Register the fast-path handler: recurrence triggers advance the chain
	// immediately, ahead of the next scheduler pass.
	triggerHandler, err := followup.NewRecurrenceTriggeredHandler(app.followupGenerator, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create recurrence trigger handler: %w", err)
	}
	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(triggerHandler)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register trigger handler")
	}

	// Initialize the periodic scan loop
	app.scheduler, err = scheduler.NewScheduler(
		app.taskStore,
		app.followupGenerator,
		app.eventEmitter,
		scheduler.Config{
			Interval:  time.Duration(cfg.Scheduler.IntervalSeconds) * time.Second,
			BatchSize: cfg.Scheduler.BatchSize,
		},
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the scheduler and the HTTP server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	// Start the background scan loop; its first pass runs immediately so a
	// restarted process catches up on pending recurrence work.
	app.scheduler.Start()

	// Set up router using the application dependencies
	router := app.setupRouter()

	// Start the HTTP server
	err := app.startHTTPServer(ctx, router)
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	// Stop the scan loop and wait for an in-flight pass to drain
	if app.scheduler != nil {
		app.scheduler.Stop()
	}

	// Close database connection
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
