// Package app wires the vault together: configuration, logging, the
// Postgres-backed stores, and the services on top of them. Embedders that
// want the vault without Postgres can build the services directly against
// the in-memory stores instead.
package app

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"go-file-vault/internal/config"
	"go-file-vault/internal/database"
	"go-file-vault/internal/event"
	"go-file-vault/internal/logger"
	"go-file-vault/internal/repository"
	"go-file-vault/internal/service"
	"go-file-vault/internal/store"
)

// App is the assembled vault.
type App struct {
	Config *config.Config

	Registry *service.Registry
	Versions *service.Versions
	Audit    *service.Audit
	Undo     *service.Undo
	Batch    *service.Batch
	Bus      event.Bus

	db *database.DB
}

// New loads configuration, connects to Postgres, applies migrations and
// builds the service graph.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(ctx, cfg)
}

func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	logger.Setup(cfg.LogLevel)

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	blobs, err := store.NewDiskBlobStore(cfg.BlobRoot)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("open blob root: %w", err)
	}

	records := repository.NewRecordRepository(db.Pool)
	versionRepo := repository.NewVersionRepository(db.Pool)
	auditRepo := repository.NewAuditRepository(db.Pool)

	bus := event.NewBus()

	// The audit repository doubles as the aggregator: it can narrow by
	// folder server-side.
	audit := service.NewAudit(auditRepo, auditRepo, cfg.AuditQueryLimit)
	versions := service.NewVersions(versionRepo, records, blobs, audit, bus)
	registry := service.NewRegistry(records, blobs, versions, audit, bus)
	undo := service.NewUndo(registry, records, audit)
	batch := service.NewBatch(registry, rate.NewLimiter(rate.Limit(cfg.BatchOpsPerSecond), 1), bus)

	return &App{
		Config:   cfg,
		Registry: registry,
		Versions: versions,
		Audit:    audit,
		Undo:     undo,
		Batch:    batch,
		Bus:      bus,
		db:       db,
	}, nil
}

// Health pings the backing database.
func (a *App) Health(ctx context.Context) error {
	return a.db.Health(ctx)
}

// Close releases the database pool.
func (a *App) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
