package repository

import (
	"context"

	"example.com/backstage/services/commerce/internal/models"

	"gorm.io/gorm/clause"
)

func (r *repo) UpsertProduct(ctx context.Context, product *models.Product) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "image_url", "price", "delivery_fee", "platform_fee", "active", "updated_at"}),
	}).Create(product).Error
	return translate(err, "upsert product")
}

func (r *repo) FindProductByID(ctx context.Context, id string) (*models.Product, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var product models.Product
	if err := db.Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, translate(err, "product "+id)
	}
	return &product, nil
}

func (r *repo) FindProductsByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var products []*models.Product
	if err := db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, translate(err, "find products")
	}
	byID := make(map[string]*models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	return byID, nil
}

func (r *repo) ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Order("name")
	if activeOnly {
		q = q.Where("active = ?", true)
	}
	var products []*models.Product
	if err := q.Find(&products).Error; err != nil {
		return nil, translate(err, "list products")
	}
	return products, nil
}
