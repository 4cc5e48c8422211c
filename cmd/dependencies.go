package cmd

import (
	"context"
	"errors"

	"backtest-catalog/config"
	"backtest-catalog/internal/repository"
	"backtest-catalog/pkg/cache"
	"backtest-catalog/pkg/logger"

	goValidator "github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type AppDependency struct {
	cfg       *config.Config
	log       *logger.Logger
	validator *goValidator.Validate
	echo      *echo.Echo
	sessions  cache.Cache
	repo      *repository.Repository
}

func NewAppDependency(ctx context.Context, path string) (*AppDependency, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Encoding)
	if err != nil {
		return nil, err
	}

	repo, err := repository.GetRepository(cfg, log)
	if err != nil {
		if errors.Is(err, config.ErrMissingBackendCredentials) {
			log.Error("Backend credentials are not configured", logger.ErrorField(err))
		} else {
			log.Error("Failed to create repository", logger.ErrorField(err))
		}
		return nil, err
	}

	e := echo.New()
	return &AppDependency{
		cfg:       cfg,
		log:       log,
		validator: goValidator.New(),
		echo:      e,
		sessions:  cache.NewCache(cfg.Session.TTL, cfg.Session.CleanupInterval),
		repo:      repo,
	}, nil
}

func (d *AppDependency) Close() error {
	d.log.Info("Closing app dependency")
	err := d.repo.Close()
	_ = d.log.Sync()
	return err
}
