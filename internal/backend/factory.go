package backend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"invoicer/internal/amqp"
	"invoicer/internal/cache"
	applog "invoicer/internal/log"
	"invoicer/internal/postgres"
	"invoicer/internal/records"
	"invoicer/internal/records/google"
	"invoicer/internal/records/memory"
	"invoicer/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *applog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *applog.Logger) Factory {
	if logger == nil {
		logger = applog.Discard()
	}
	return &DefaultFactory{logger: logger.WithComponent(applog.ComponentBackend)}
}

// CreateBackend builds the store for config.Type, wraps it in a snapshot
// cache when configured and connects the optional event client.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	store, err := f.createStore(ctx, config)
	if err != nil {
		return nil, err
	}

	var cleanups []func() error
	var manager *cache.Manager
	if config.CacheTTL > 0 && config.Type != MemoryBackend {
		cached := records.NewCached(store, config.CacheTTL, f.logger)
		manager = cache.NewManager(f.logger)
		manager.Register(cached.Cache())
		manager.StartCleanup(ctx, config.CacheTTL)
		store = cached
		f.logger.Info("History cache enabled", "ttl", config.CacheTTL.String())
	}
	cleanups = append(cleanups, func() error { return records.Close(store) })
	if manager != nil {
		cleanups = append(cleanups, func() error { manager.Stop(); return nil })
	}

	var events *amqp.Client
	if config.AMQPURL != "" {
		events, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without events", applog.FieldError, err)
			events = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			cleanups = append(cleanups, events.Close)
		}
	}

	return &BackendResult{
		Store:  store,
		Events: events,
		Cleanup: func() error {
			var errs []error
			for i := len(cleanups) - 1; i >= 0; i-- {
				errs = append(errs, cleanups[i]())
			}
			return errors.Join(errs...)
		},
	}, nil
}

func (f *DefaultFactory) createStore(ctx context.Context, config Config) (records.Store, error) {
	start := time.Now()
	var (
		store records.Store
		err   error
	)
	switch config.Type {
	case MemoryBackend:
		store = memory.New(nil)
	case FileBackend:
		store = memory.NewFileStore(config.DataFile)
	case SQLiteBackend:
		store, err = storage.NewSQLiteRepository(config.SQLiteDBPath, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
	case PostgresBackend:
		store, err = postgres.New(ctx, config.DatabaseURL, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
		}
	case SheetsBackend:
		store, err = google.New(ctx, google.Options{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsJSON: config.GoogleServiceAccountJSON,
			CredentialsFile: config.GoogleServiceAccountFile,
		}, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	f.logger.Info("Initialized backend",
		applog.FieldBackend, config.Type.String(),
		applog.FieldDuration, time.Since(start).Milliseconds())
	return store, nil
}
