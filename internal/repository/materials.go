package repository

import (
	"context"
	"fmt"
	"time"

	"example.com/backstage/services/commerce/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func (r *repo) CreateRawMaterial(ctx context.Context, material *models.RawMaterial) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translate(db.Create(material).Error, "create raw material")
}

func (r *repo) FindRawMaterial(ctx context.Context, id string) (*models.RawMaterial, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var material models.RawMaterial
	if err := db.Where("id = ?", id).Take(&material).Error; err != nil {
		return nil, translate(err, "raw material "+id)
	}
	return &material, nil
}

func (r *repo) ListRawMaterials(ctx context.Context) ([]*models.RawMaterial, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var materials []*models.RawMaterial
	if err := db.Order("name").Find(&materials).Error; err != nil {
		return nil, translate(err, "list raw materials")
	}
	return materials, nil
}

// ConsumeRawMaterial draws quantity from the material and returns it with
// the new balance. Like DecrementStock the write is guarded so the balance
// cannot go below zero.
func (r *repo) ConsumeRawMaterial(ctx context.Context, id string, quantity decimal.Decimal) (*models.RawMaterial, error) {
	if !r.inTx {
		return nil, ErrTransactionRequired
	}
	if !quantity.IsPositive() {
		return nil, fmt.Errorf("consumed quantity must be positive, got %s", quantity)
	}

	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	var material models.RawMaterial
	if err := db.Where("id = ?", id).Take(&material).Error; err != nil {
		return nil, translate(err, "raw material "+id)
	}
	if material.Quantity.LessThan(quantity) {
		return nil, &InsufficientMaterialError{
			MaterialID: id,
			Name:       material.Name,
			Requested:  quantity,
			Available:  material.Quantity,
		}
	}

	now := time.Now()
	res := db.Model(&models.RawMaterial{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", quantity),
			"updated_at": now,
		})
	if res.Error != nil {
		return nil, translate(res.Error, "consume raw material "+id)
	}
	if res.RowsAffected == 0 {
		return nil, &InsufficientMaterialError{
			MaterialID: id,
			Name:       material.Name,
			Requested:  quantity,
			Available:  material.Quantity,
		}
	}

	material.Quantity = material.Quantity.Sub(quantity)
	material.UpdatedAt = now
	return &material, nil
}

func (r *repo) AddRawMaterialQuantity(ctx context.Context, id string, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return fmt.Errorf("intake quantity must be positive, got %s", quantity)
	}
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.RawMaterial{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", quantity),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error, "add raw material quantity")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("raw material %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *repo) CreateMaterialIntake(ctx context.Context, intake *models.MaterialIntake) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translate(db.Create(intake).Error, "create material intake")
}

func (r *repo) ListMaterialIntakes(ctx context.Context, materialID string, limit int) ([]*models.MaterialIntake, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Order("created_at DESC").Limit(clampLimit(limit))
	if materialID != "" {
		q = q.Where("raw_material_id = ?", materialID)
	}
	var intakes []*models.MaterialIntake
	if err := q.Find(&intakes).Error; err != nil {
		return nil, translate(err, "list material intakes")
	}
	return intakes, nil
}
