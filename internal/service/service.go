package service

import (
	"backtest-catalog/config"
	"backtest-catalog/internal/repository"
	"backtest-catalog/pkg/logger"
)

type Service struct {
	CatalogService CatalogService
}

func NewService(
	cfg *config.Config,
	log *logger.Logger,
	repo *repository.Repository,
) *Service {
	return &Service{
		CatalogService: NewCatalogService(cfg, log, repo.ManifestRepo, repo.DetailsRepo),
	}
}
