package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"example.com/backstage/services/commerce/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *repo) FindInventoryEntry(ctx context.Context, key string) (*models.InventoryEntry, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var entry models.InventoryEntry
	if err := db.Where("id = ?", key).Take(&entry).Error; err != nil {
		return nil, translate(err, "inventory entry "+key)
	}
	return &entry, nil
}

func (r *repo) ListInventory(ctx context.Context) ([]*models.InventoryEntry, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}
	var entries []*models.InventoryEntry
	if err := db.Order("id").Find(&entries).Error; err != nil {
		return nil, translate(err, "list inventory")
	}
	return entries, nil
}

// DecrementStock removes amount units from the entry at key. A missing entry
// or a quantity below amount fails with an InsufficientStockError. The write
// is conditional on the quantity still covering amount so a concurrent
// decrement can never drive the entry negative.
func (r *repo) DecrementStock(ctx context.Context, key string, amount int64) error {
	if !r.inTx {
		return ErrTransactionRequired
	}
	if amount <= 0 {
		return fmt.Errorf("decrement amount must be positive, got %d", amount)
	}

	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	var entry models.InventoryEntry
	if err := db.Where("id = ?", key).Take(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &InsufficientStockError{Key: key, Requested: amount}
		}
		return translate(err, "read inventory entry "+key)
	}
	if entry.Quantity < amount {
		return &InsufficientStockError{Key: key, Requested: amount, Available: entry.Quantity}
	}

	res := db.Model(&models.InventoryEntry{}).
		Where("id = ? AND quantity >= ?", key, amount).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity - ?", amount),
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return translate(res.Error, "decrement inventory entry "+key)
	}
	if res.RowsAffected == 0 {
		return &InsufficientStockError{Key: key, Requested: amount, Available: entry.Quantity}
	}
	return nil
}

// IncrementStock adds amount units, creating the entry on first write.
func (r *repo) IncrementStock(ctx context.Context, productID, size string, amount int64) error {
	if amount <= 0 {
		return fmt.Errorf("increment amount must be positive, got %d", amount)
	}
	db, err := r.conn(ctx)
	if err != nil {
		return err
	}

	key := models.InventoryKey(productID, size)
	if err := checkKeyOwner(db, key, productID); err != nil {
		return err
	}

	now := time.Now()
	entry := models.InventoryEntry{
		ID:        key,
		ProductID: productID,
		Size:      size,
		Quantity:  amount,
		UpdatedAt: now,
	}
	err = db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"quantity":   gorm.Expr("inventory_entries.quantity + ?", amount),
			"updated_at": now,
		}),
	}).Create(&entry).Error
	return translate(err, "increment inventory entry "+entry.ID)
}

// SetStock overwrites the quantity of an entry. It is the administrative
// correction path and does not apply the non-negative guard.
func (r *repo) SetStock(ctx context.Context, productID, size string, quantity int64) (*models.InventoryEntry, error) {
	db, err := r.conn(ctx)
	if err != nil {
		return nil, err
	}

	key := models.InventoryKey(productID, size)
	if err := checkKeyOwner(db, key, productID); err != nil {
		return nil, err
	}

	entry := &models.InventoryEntry{
		ID:        key,
		ProductID: productID,
		Size:      size,
		Quantity:  quantity,
		UpdatedAt: time.Now(),
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity", "updated_at"}),
	}).Create(entry).Error
	if err != nil {
		return nil, translate(err, "set inventory entry "+entry.ID)
	}
	return entry, nil
}

// checkKeyOwner rejects a write whose key already belongs to another
// product. Keys concatenate product id and size, so ("ab", "c") and
// ("a", "bc") share one entry.
func checkKeyOwner(db *gorm.DB, key, productID string) error {
	var owner models.InventoryEntry
	err := db.Select("id", "product_id").Where("id = ?", key).Take(&owner).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil
	case err != nil:
		return translate(err, "read inventory entry "+key)
	case owner.ProductID != productID:
		return fmt.Errorf("%w: inventory key %s belongs to product %s", ErrDuplicateKey, key, owner.ProductID)
	}
	return nil
}
