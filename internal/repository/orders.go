package repository

import (
	"context"
	"fmt"
	"time"

	"example.com/backstage/services/commerce/internal/models"

	"gorm.io/gorm"
)

func itemsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

func (r *repo) CreateOrder(ctx context.Context, order *models.Order) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	return translate(db.Create(order).Error, "create order")
}

func (r *repo) FindOrderByID(ctx context.Context, id string) (*models.Order, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var order models.Order
	if err := db.Preload("Items", itemsInOrder).Where("id = ?", id).Take(&order).Error; err != nil {
		return nil, translate(err, "order "+id)
	}
	return &order, nil
}

func (r *repo) FindOrderByReference(ctx context.Context, reference string) (*models.Order, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var order models.Order
	err = db.Preload("Items", itemsInOrder).Where("paystack_reference = ?", reference).Take(&order).Error
	if err != nil {
		return nil, translate(err, "order with reference "+reference)
	}
	return &order, nil
}

func (r *repo) ListOrders(ctx context.Context, filter OrderFilter) ([]*models.Order, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Preload("Items", itemsInOrder).
		Order("order_date DESC").
		Limit(clampLimit(filter.Limit)).
		Offset(filter.Offset)
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	var orders []*models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, translate(err, "list orders")
	}
	return orders, nil
}

// UpdateOrderStatus moves the order from one status to another. The write
// only applies while the order is still in from.
func (r *repo) UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error {
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}
	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error, "update order status")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order %s: %w", id, ErrStaleStatus)
	}
	return nil
}
