package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"example.com/backstage/services/commerce/internal/messaging"
	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/repository"
	"example.com/backstage/services/commerce/internal/tracing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// MaterialUsage is a raw material the operator declares was consumed.
type MaterialUsage struct {
	MaterialID string          `json:"raw_material_id" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity"`
}

// ProductionInput is one manufacturing run.
type ProductionInput struct {
	ProductID    string          `json:"product_id" binding:"required"`
	Size         string          `json:"size"`
	Quantity     int64           `json:"quantity_produced" binding:"required,gt=0"`
	Materials    []MaterialUsage `json:"consumed_materials" binding:"dive"`
	OperatorID   string          `json:"operator_id"`
	OperatorName string          `json:"operator_name"`
}

// LogProduction draws the declared materials down and adds the produced
// units to the finished-goods ledger in one transaction. A material that is
// missing or short fails the whole run. The audit record is written after
// commit and its failure does not undo the run.
func (s *service) LogProduction(ctx context.Context, input ProductionInput) (*models.ProductionRun, error) {
	defer tracing.StartSegment(ctx, "LogProduction")()

	usage, err := validateProduction(input)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.FindProductByID(ctx, input.ProductID)
	if err != nil {
		return nil, err
	}

	entry := s.log.WithFields(logrus.Fields{
		"key":      models.InventoryKey(input.ProductID, input.Size),
		"quantity": input.Quantity,
		"operator": input.OperatorID,
	})

	var consumed []models.ConsumedMaterial
	err = s.retry(ctx, "production_run", func() error {
		consumed = consumed[:0]
		return s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
			for _, u := range usage {
				material, err := tx.ConsumeRawMaterial(ctx, u.MaterialID, u.Quantity)
				if err != nil {
					return err
				}
				consumed = append(consumed, models.ConsumedMaterial{
					RawMaterialID:    material.ID,
					RawMaterialName:  material.Name,
					QuantityConsumed: u.Quantity,
				})
			}
			return tx.IncrementStock(ctx, input.ProductID, input.Size, input.Quantity)
		})
	})
	if err != nil {
		s.metrics.RecordProductionRun(false)
		entry.WithError(err).Warn("Production run rejected")
		return nil, fmt.Errorf("%w: %w", ErrLogProduction, err)
	}
	s.metrics.RecordProductionRun(true)

	run := &models.ProductionRun{
		ID:                 uuid.NewString(),
		FinishedGoodItemID: models.InventoryKey(input.ProductID, input.Size),
		ProductID:          product.ID,
		Size:               input.Size,
		ProductName:        product.Name,
		QuantityProduced:   input.Quantity,
		ConsumedMaterials:  consumed,
		OperatorID:         input.OperatorID,
		OperatorName:       input.OperatorName,
		CreatedAt:          time.Now().UTC(),
	}
	if err := s.repo.CreateProductionRun(ctx, run); err != nil {
		entry.WithError(err).Error("Production run committed but audit record was not written")
		return run, nil
	}

	entry.WithField("run_id", run.ID).Info("Production run logged")
	s.publish(messaging.NewEvent(messaging.EventProductionLogged, run.ID))
	return run, nil
}

// validateProduction checks the run and merges repeated materials, sorted by
// id so concurrent runs lock rows in the same order.
func validateProduction(input ProductionInput) ([]MaterialUsage, error) {
	if input.ProductID == "" {
		return nil, invalidf("product id is required")
	}
	if input.Quantity <= 0 {
		return nil, invalidf("quantity produced must be positive")
	}

	merged := make(map[string]decimal.Decimal, len(input.Materials))
	for i, m := range input.Materials {
		if m.MaterialID == "" {
			return nil, invalidf("material %d has no id", i)
		}
		if !m.Quantity.IsPositive() {
			return nil, invalidf("material %s quantity must be positive", m.MaterialID)
		}
		merged[m.MaterialID] = merged[m.MaterialID].Add(m.Quantity)
	}

	usage := make([]MaterialUsage, 0, len(merged))
	for id, qty := range merged {
		usage = append(usage, MaterialUsage{MaterialID: id, Quantity: qty})
	}
	sort.Slice(usage, func(i, j int) bool { return usage[i].MaterialID < usage[j].MaterialID })
	return usage, nil
}

func (s *service) ListProductionRuns(ctx context.Context, limit int) ([]*models.ProductionRun, error) {
	return s.repo.ListProductionRuns(ctx, limit)
}
