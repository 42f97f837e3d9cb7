package repository

import (
	"context"

	"example.com/backstage/services/commerce/internal/models"
)

func (r *repo) CreateProductionRun(ctx context.Context, run *models.ProductionRun) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translate(db.Create(run).Error, "create production run")
}

func (r *repo) FindProductionRun(ctx context.Context, id string) (*models.ProductionRun, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var run models.ProductionRun
	if err := db.Preload("ConsumedMaterials").Where("id = ?", id).Take(&run).Error; err != nil {
		return nil, translate(err, "production run "+id)
	}
	return &run, nil
}

func (r *repo) ListProductionRuns(ctx context.Context, limit int) ([]*models.ProductionRun, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var runs []*models.ProductionRun
	err = db.Preload("ConsumedMaterials").
		Order("created_at DESC").
		Limit(clampLimit(limit)).
		Find(&runs).Error
	if err != nil {
		return nil, translate(err, "list production runs")
	}
	return runs, nil
}
