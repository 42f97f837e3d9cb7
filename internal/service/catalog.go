package service

import (
	"context"
	"errors"
	"strings"

	"example.com/backstage/services/commerce/internal/cache"
	"example.com/backstage/services/commerce/internal/models"
)

func (s *service) ListProducts(ctx context.Context, activeOnly bool) ([]*models.Product, error) {
	if !activeOnly {
		return s.repo.ListProducts(ctx, false)
	}

	var products []*models.Product
	err := s.cache.Get(ctx, cache.ProductCatalogKey(), &products)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.WithError(err).Warn("Product cache read failed")
	}

	products, err = s.repo.ListProducts(ctx, true)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.ProductCatalogKey(), products, s.cacheTTL); err != nil {
		s.log.WithError(err).Warn("Product cache write failed")
	}
	return products, nil
}

// UpsertProduct creates or replaces a catalog entry and drops the cached catalog.
func (s *service) UpsertProduct(ctx context.Context, product *models.Product) error {
	product.ID = strings.TrimSpace(product.ID)
	switch {
	case product.ID == "":
		return invalidf("product id is required")
	case strings.TrimSpace(product.Name) == "":
		return invalidf("product name is required")
	case product.Price.IsNegative(), product.DeliveryFee.IsNegative(), product.PlatformFee.IsNegative():
		return invalidf("product prices must not be negative")
	}

	if err := s.repo.UpsertProduct(ctx, product); err != nil {
		return err
	}
	if err := s.cache.Delete(ctx, cache.ProductCatalogKey()); err != nil {
		s.log.WithError(err).Warn("Product cache invalidation failed")
	}
	return nil
}

func (s *service) ListInventory(ctx context.Context) ([]*models.InventoryEntry, error) {
	return s.repo.ListInventory(ctx)
}

// SetStock is the administrative count correction. It overwrites the ledger
// value without the non-negative guard.
func (s *service) SetStock(ctx context.Context, productID, size string, quantity int64) (*models.InventoryEntry, error) {
	if productID == "" {
		return nil, invalidf("product id is required")
	}
	if _, err := s.repo.FindProductByID(ctx, productID); err != nil {
		return nil, err
	}

	entry, err := s.repo.SetStock(ctx, productID, size, quantity)
	if err != nil {
		return nil, err
	}
	s.log.WithField("key", entry.ID).WithField("quantity", quantity).Info("Stock overridden")
	return entry, nil
}
