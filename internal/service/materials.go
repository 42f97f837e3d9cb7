package service

import (
	"context"
	"strings"
	"time"

	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// AddMaterialInput registers a new raw material.
type AddMaterialInput struct {
	Name            string          `json:"name" binding:"required"`
	UnitOfMeasure   string          `json:"unit_of_measure" binding:"required,material_unit"`
	InitialQuantity decimal.Decimal `json:"initial_quantity"`
}

// IntakeInput records raw material received into stock.
type IntakeInput struct {
	MaterialID string          `json:"-"`
	Quantity   decimal.Decimal `json:"quantity"`
	Supplier   string          `json:"supplier"`
	Note       string          `json:"note"`
	ReceivedBy string          `json:"received_by"`
}

func (s *service) AddMaterial(ctx context.Context, input AddMaterialInput) (*models.RawMaterial, error) {
	name := strings.TrimSpace(input.Name)
	unit := models.UnitOfMeasure(input.UnitOfMeasure)
	switch {
	case name == "":
		return nil, invalidf("material name is required")
	case !unit.Valid():
		return nil, invalidf("unknown unit of measure %q", input.UnitOfMeasure)
	case input.InitialQuantity.IsNegative():
		return nil, invalidf("initial quantity must not be negative")
	}

	material := &models.RawMaterial{
		ID:            uuid.NewString(),
		Name:          name,
		UnitOfMeasure: unit,
		Quantity:      input.InitialQuantity,
	}
	if err := s.repo.CreateRawMaterial(ctx, material); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"material_id": material.ID, "name": name}).Info("Raw material added")
	return material, nil
}

// LogIntake adds received quantity to a material and keeps the intake row
// in the same transaction.
func (s *service) LogIntake(ctx context.Context, input IntakeInput) (*models.MaterialIntake, error) {
	if input.MaterialID == "" {
		return nil, invalidf("material id is required")
	}
	if !input.Quantity.IsPositive() {
		return nil, invalidf("intake quantity must be positive")
	}

	intake := &models.MaterialIntake{
		ID:            uuid.NewString(),
		RawMaterialID: input.MaterialID,
		Quantity:      input.Quantity,
		Supplier:      input.Supplier,
		Note:          input.Note,
		ReceivedBy:    input.ReceivedBy,
		CreatedAt:     time.Now().UTC(),
	}

	err := s.retry(ctx, "material_intake", func() error {
		return s.repo.WithTransaction(ctx, func(ctx context.Context, tx repository.Repository) error {
			if err := tx.AddRawMaterialQuantity(ctx, input.MaterialID, input.Quantity); err != nil {
				return err
			}
			return tx.CreateMaterialIntake(ctx, intake)
		})
	})
	if err != nil {
		return nil, err
	}
	return intake, nil
}

func (s *service) ListMaterials(ctx context.Context) ([]*models.RawMaterial, error) {
	return s.repo.ListRawMaterials(ctx)
}

func (s *service) ListIntakes(ctx context.Context, materialID string, limit int) ([]*models.MaterialIntake, error) {
	return s.repo.ListMaterialIntakes(ctx, materialID, limit)
}
