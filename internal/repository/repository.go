package repository

import (
	"context"
	"errors"
	"fmt"

	"example.com/backstage/services/commerce/internal/database"
	"example.com/backstage/services/commerce/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Repository provides data access methods
type Repository interface {
	// Transaction support
	WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error

	// Product operations
	UpsertProduct(ctx context.Context, product *models.Product) error
	FindProductByID(ctx context.Context, id string) (*models.Product, error)
	FindProductsByIDs(ctx context.Context, ids []string) (map[string]*models.Product, error)
	ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error)

	// Inventory ledger operations. DecrementStock is only valid on a transaction repository.
	FindInventoryEntry(ctx context.Context, key string) (*models.InventoryEntry, error)
	ListInventory(ctx context.Context) ([]*models.InventoryEntry, error)
	DecrementStock(ctx context.Context, key string, amount int64) error
	IncrementStock(ctx context.Context, productID, size string, amount int64) error
	SetStock(ctx context.Context, productID, size string, quantity int64) (*models.InventoryEntry, error)

	// Raw material ledger operations. ConsumeRawMaterial is only valid on a transaction repository.
	CreateRawMaterial(ctx context.Context, material *models.RawMaterial) error
	FindRawMaterial(ctx context.Context, id string) (*models.RawMaterial, error)
	ListRawMaterials(ctx context.Context) ([]*models.RawMaterial, error)
	ConsumeRawMaterial(ctx context.Context, id string, quantity decimal.Decimal) (*models.RawMaterial, error)
	AddRawMaterialQuantity(ctx context.Context, id string, quantity decimal.Decimal) error
	CreateMaterialIntake(ctx context.Context, intake *models.MaterialIntake) error
	ListMaterialIntakes(ctx context.Context, materialID string, limit int) ([]*models.MaterialIntake, error)

	// Order operations
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrderByID(ctx context.Context, id string) (*models.Order, error)
	FindOrderByReference(ctx context.Context, reference string) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]*models.Order, error)
	UpdateOrderStatus(ctx context.Context, id string, from, to models.OrderStatus) error

	// ProductionRun operations
	CreateProductionRun(ctx context.Context, run *models.ProductionRun) error
	FindProductionRun(ctx context.Context, id string) (*models.ProductionRun, error)
	ListProductionRuns(ctx context.Context, limit int) ([]*models.ProductionRun, error)

	// Referral operations
	CreateReferral(ctx context.Context, referral *models.Referral) error
	FindReferralByCode(ctx context.Context, code string) (*models.Referral, error)
	IncrementReferralClicks(ctx context.Context, code string) error
}

// OrderFilter narrows ListOrders
type OrderFilter struct {
	Status models.OrderStatus
	UserID string
	Limit  int
	Offset int
}

// repo is an implementation of the Repository interface
type repo struct {
	db   database.DB
	inTx bool
}

// Helper type for transaction support
type dbWrapper struct {
	db *gorm.DB
}

func (w *dbWrapper) DB() (*gorm.DB, error) {
	return w.db, nil
}

func (w *dbWrapper) Close() error {
	return nil
}

// NewRepository creates a new repository instance
func NewRepository(db database.DB) Repository {
	return &repo{
		db: db,
	}
}

// WithTransaction executes the given function within a database transaction
func (r *repo) WithTransaction(ctx context.Context, fn func(ctx context.Context, txRepo Repository) error) error {
	gormDB, err := r.conn(ctx)
	if err != nil {
		return err
	}

	err = gormDB.Transaction(func(tx *gorm.DB) error {
		txRepo := &repo{
			db:   &dbWrapper{db: tx},
			inTx: true,
		}
		return fn(ctx, txRepo)
	})
	if err != nil && IsRetryable(err) && !errors.Is(err, ErrConflict) {
		return fmt.Errorf("%w: %w", ErrConflict, err)
	}
	return err
}

func (r *repo) conn(ctx context.Context) (*gorm.DB, error) {
	gormDB, err := r.db.DB()
	if err != nil {
		return nil, err
	}
	return gormDB.WithContext(ctx), nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 500 {
		return 100
	}
	return limit
}
