package service

import (
	"context"
	"fmt"
	"time"

	"example.com/backstage/services/commerce/config"
	"example.com/backstage/services/commerce/internal/models"
	"example.com/backstage/services/commerce/internal/notify"
	"example.com/backstage/services/commerce/internal/reports"
)

// SendInventoryReport emails the admin a workbook of finished goods and raw
// materials with low-stock lines flagged.
func (s *service) SendInventoryReport(ctx context.Context) error {
	if err := config.Require("app.adminemail", s.app.AdminEmail); err != nil {
		return err
	}
	if s.mailer == nil {
		return fmt.Errorf("no mailer configured")
	}

	products, err := s.repo.ListProducts(ctx, false)
	if err != nil {
		return err
	}
	inventory, err := s.repo.ListInventory(ctx)
	if err != nil {
		return err
	}
	materials, err := s.repo.ListRawMaterials(ctx)
	if err != nil {
		return err
	}

	snapshot := reports.InventorySnapshot{
		GeneratedAt:       time.Now().UTC(),
		Products:          make(map[string]*models.Product, len(products)),
		Inventory:         inventory,
		Materials:         materials,
		LowStockThreshold: s.reports.LowStockThreshold,
	}
	for _, p := range products {
		snapshot.Products[p.ID] = p
	}

	workbook, err := reports.BuildInventoryWorkbook(snapshot)
	if err != nil {
		return err
	}

	day := snapshot.GeneratedAt.Format("2006-01-02")
	low := snapshot.LowStock()
	email := notify.Email{
		To:      []string{s.app.AdminEmail},
		Subject: fmt.Sprintf("Inventory report %s (%d low stock)", day, len(low)),
		HTMLBody: fmt.Sprintf("<p>Inventory as of %s: %d finished-good lines, %d raw materials, %d at or below %d units.</p>",
			snapshot.GeneratedAt.Format(time.RFC1123), len(inventory), len(materials), len(low), s.reports.LowStockThreshold),
		Attachments: []notify.Attachment{{
			Name:     "inventory-" + day + ".xlsx",
			MimeType: reports.XLSXMimeType,
			Content:  workbook,
		}},
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		return err
	}

	s.log.WithField("low_stock", len(low)).Info("Inventory report sent")
	return nil
}
