package repository

import (
	"context"

	"backtest-catalog/config"
	"backtest-catalog/internal/model"
	"backtest-catalog/pkg/postgres"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type postgresManifestRepository struct {
	db       *postgres.DB
	manifest config.Manifest
}

func NewPostgresManifestRepository(db *postgres.DB, manifest config.Manifest) *postgresManifestRepository {
	return &postgresManifestRepository{db: db, manifest: manifest}
}

func (r *postgresManifestRepository) published(ctx context.Context) *gorm.DB {
	m := r.manifest
	return r.db.WithContext(ctx).
		Table(m.Table).
		Where(clause.Eq{Column: clause.Column{Name: m.PublishedColumn}, Value: true})
}

func (r *postgresManifestRepository) ListPublished(ctx context.Context, limit, offset int, withCount bool) ([]model.ManifestEntry, *int64, error) {
	m := r.manifest

	var total *int64
	if withCount {
		var count int64
		if err := r.published(ctx).Count(&count).Error; err != nil {
			return nil, nil, model.NewConnectivityError("count published manifest", m.Table, 0, err)
		}
		total = &count
	}

	var rows []model.ManifestEntry
	err := r.published(ctx).
		Select("? AS code, ? AS image_url, ? AS excel_url",
			clause.Column{Name: m.CodeColumn},
			clause.Column{Name: m.ImageColumn},
			clause.Column{Name: m.ExcelColumn},
		).
		Order(clause.OrderByColumn{Column: clause.Column{Name: m.OrderColumn}, Desc: m.OrderDesc}).
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return nil, nil, model.NewConnectivityError("list published manifest", m.Table, 0, err)
	}
	return rows, total, nil
}

type postgresDetailsRepository struct {
	db      *postgres.DB
	details config.Details
}

func NewPostgresDetailsRepository(db *postgres.DB, details config.Details) *postgresDetailsRepository {
	return &postgresDetailsRepository{db: db, details: details}
}

func (r *postgresDetailsRepository) GetPerformanceByCodes(ctx context.Context, codes []string) ([]model.BacktestDetail, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	d := r.details

	values := make([]interface{}, len(codes))
	for i, c := range codes {
		values[i] = c
	}

	var rows []model.BacktestDetail
	err := r.db.WithContext(ctx).
		Table(d.Table).
		Select("? AS code, ? AS performance_json",
			clause.Column{Name: d.CodeColumn},
			clause.Column{Name: d.PerformanceColumn},
		).
		Where(clause.IN{Column: clause.Column{Name: d.CodeColumn}, Values: values}).
		Find(&rows).Error
	if err != nil {
		return nil, model.NewConnectivityError("get performance by codes", d.Table, 0, err)
	}
	return rows, nil
}
