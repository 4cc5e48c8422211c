package repository

import (
	"context"
	"fmt"
	"sync"

	"backtest-catalog/config"
	"backtest-catalog/internal/model"
	"backtest-catalog/pkg/httpclient"
	"backtest-catalog/pkg/logger"
	"backtest-catalog/pkg/postgres"
)

// ManifestRepository lists the published backtests and their asset links.
type ManifestRepository interface {
	// ListPublished returns the rows in [offset, offset+limit). total is set
	// only when withCount is true and the backend reported an exact count.
	ListPublished(ctx context.Context, limit, offset int, withCount bool) (rows []model.ManifestEntry, total *int64, err error)
}

// DetailsRepository reads performance payloads by backtest code.
type DetailsRepository interface {
	GetPerformanceByCodes(ctx context.Context, codes []string) ([]model.BacktestDetail, error)
}

type Repository struct {
	ManifestRepo ManifestRepository
	DetailsRepo  DetailsRepository

	close func() error
}

// Close releases the backend connection. Safe to call on a nil Repository.
func (r *Repository) Close() error {
	if r == nil || r.close == nil {
		return nil
	}
	return r.close()
}

// NewRepository builds the gateway for the configured backend driver. For
// the rest driver a missing url/key fails with
// config.ErrMissingBackendCredentials.
func NewRepository(cfg *config.Config, log *logger.Logger) (*Repository, error) {
	switch cfg.Backend.Driver {
	case config.DriverPostgres:
		db, err := postgres.NewDB(cfg.DB, log)
		if err != nil {
			return nil, model.NewConnectivityError("connect", "database", 0, err)
		}
		return &Repository{
			ManifestRepo: NewPostgresManifestRepository(db, cfg.Backend.Manifest),
			DetailsRepo:  NewPostgresDetailsRepository(db, cfg.Backend.Details),
			close:        db.Close,
		}, nil
	case config.DriverREST, "":
		creds, err := config.ResolveBackendCredentials(cfg.DefaultCredentialSources(nil)...)
		if err != nil {
			return nil, err
		}
		log.Info("Resolved backend credentials", logger.StringField("source", creds.Source), logger.StringField("url", creds.URL))

		client := httpclient.New(httpclient.Options{
			BaseURL:     creds.URL,
			Timeout:     cfg.Backend.Timeout,
			BearerToken: creds.Key,
			Headers:     map[string]string{"apikey": creds.Key},
			RetryCount:  cfg.Backend.RetryCount,
		})
		return &Repository{
			ManifestRepo: NewPostgrestManifestRepository(client, log, cfg.Backend.RestPath, cfg.Backend.Manifest),
			DetailsRepo:  NewPostgrestDetailsRepository(client, log, cfg.Backend.RestPath, cfg.Backend.Details),
		}, nil
	default:
		return nil, fmt.Errorf("unknown backend driver %q", cfg.Backend.Driver)
	}
}

var (
	backendOnce sync.Once
	backend     *Repository
	backendErr  error
)

// GetRepository returns the process wide gateway, constructing it on the
// first call. Later calls return the same instance (or the same error) and
// ignore their arguments.
func GetRepository(cfg *config.Config, log *logger.Logger) (*Repository, error) {
	backendOnce.Do(func() {
		backend, backendErr = NewRepository(cfg, log)
	})
	return backend, backendErr
}
