package reports

import (
	"bytes"
	"fmt"
	"time"

	"example.com/backstage/services/commerce/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	inventorySheet = "Finished Goods"
	materialsSheet = "Raw Materials"

	// XLSXMimeType is the content type of generated workbooks.
	XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// InventorySnapshot is the data behind an inventory workbook.
type InventorySnapshot struct {
	GeneratedAt       time.Time
	Products          map[string]*models.Product
	Inventory         []*models.InventoryEntry
	Materials         []*models.RawMaterial
	LowStockThreshold int64
}

// LowStock returns the inventory entries at or below the threshold.
func (s InventorySnapshot) LowStock() []*models.InventoryEntry {
	var low []*models.InventoryEntry
	for _, e := range s.Inventory {
		if e.Quantity <= s.LowStockThreshold {
			low = append(low, e)
		}
	}
	return low
}

// BuildInventoryWorkbook renders the snapshot as an xlsx file.
func BuildInventoryWorkbook(s InventorySnapshot) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", inventorySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(materialsSheet); err != nil {
		return nil, err
	}

	lowStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#F8CBAD"}, Pattern: 1},
	})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	headers := []interface{}{"Key", "Product", "Size", "Quantity", "Low stock"}
	if err := f.SetSheetRow(inventorySheet, "A1", &headers); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(inventorySheet, "A1", "E1", headerStyle); err != nil {
		return nil, err
	}
	for i, e := range s.Inventory {
		row := i + 2
		name := e.ProductID
		if p, ok := s.Products[e.ProductID]; ok {
			name = p.Name
		}
		low := e.Quantity <= s.LowStockThreshold
		values := []interface{}{e.ID, name, e.Size, e.Quantity, yesNo(low)}
		if err := f.SetSheetRow(inventorySheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, err
		}
		if low {
			if err := f.SetCellStyle(inventorySheet, fmt.Sprintf("A%d", row), fmt.Sprintf("E%d", row), lowStyle); err != nil {
				return nil, err
			}
		}
	}

	headers = []interface{}{"ID", "Material", "Unit", "Quantity"}
	if err := f.SetSheetRow(materialsSheet, "A1", &headers); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(materialsSheet, "A1", "D1", headerStyle); err != nil {
		return nil, err
	}
	for i, m := range s.Materials {
		qty, _ := m.Quantity.Float64()
		values := []interface{}{m.ID, m.Name, string(m.UnitOfMeasure), qty}
		if err := f.SetSheetRow(materialsSheet, fmt.Sprintf("A%d", i+2), &values); err != nil {
			return nil, err
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   "Inventory report",
		Created: s.GeneratedAt.UTC().Format(time.RFC3339),
	}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
