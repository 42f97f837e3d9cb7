package models

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// Product is a sellable finished good with its current pricing.
type Product struct {
	ID          string          `gorm:"primaryKey;size:64" json:"id"`
	Name        string          `gorm:"size:255;not null" json:"name"`
	ImageURL    string          `gorm:"size:512" json:"image_url"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	DeliveryFee decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"delivery_fee"`
	PlatformFee decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"platform_fee"`
	Active      bool            `gorm:"not null" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InventoryEntry is the finished-goods stock counter for one product size.
type InventoryEntry struct {
	ID        string    `gorm:"primaryKey;size:128" json:"id"`
	ProductID string    `gorm:"size:64;index;not null" json:"product_id"`
	Size      string    `gorm:"size:64" json:"size"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InventoryKey builds the ledger key for a product size. All whitespace in
// the size is dropped so "500 ml" and "500ml" share an entry.
func InventoryKey(productID, size string) string {
	return productID + strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, size)
}

// UnitOfMeasure is the unit a raw material is counted in.
type UnitOfMeasure string

const (
	UnitKilogram   UnitOfMeasure = "kg"
	UnitLitre      UnitOfMeasure = "L"
	UnitGram       UnitOfMeasure = "g"
	UnitMillilitre UnitOfMeasure = "ml"
	UnitUnits      UnitOfMeasure = "units"
)

// Valid reports whether u is a known unit.
func (u UnitOfMeasure) Valid() bool {
	switch u {
	case UnitKilogram, UnitLitre, UnitGram, UnitMillilitre, UnitUnits:
		return true
	}
	return false
}

// RawMaterial is a raw-material ledger entry.
type RawMaterial struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	UnitOfMeasure UnitOfMeasure   `gorm:"size:16;not null" json:"unit_of_measure"`
	Quantity      decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// MaterialIntake records a delivery of raw material into stock.
type MaterialIntake struct {
	ID            string          `gorm:"primaryKey;size:36" json:"id"`
	RawMaterialID string          `gorm:"size:36;index;not null" json:"raw_material_id"`
	Quantity      decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity"`
	Supplier      string          `gorm:"size:255" json:"supplier,omitempty"`
	Note          string          `gorm:"type:text" json:"note,omitempty"`
	ReceivedBy    string          `gorm:"size:128" json:"received_by,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Sales channels
const (
	ChannelOnline = "online"
	ChannelField  = "field"
)

// Order is created once payment is confirmed and is immutable apart from Status.
type Order struct {
	ID                string          `gorm:"primaryKey;size:36" json:"id"`
	CustomerName      string          `gorm:"size:255" json:"customer_name"`
	CustomerEmail     string          `gorm:"size:255" json:"customer_email"`
	CustomerPhone     string          `gorm:"size:32" json:"customer_phone"`
	ShippingAddress   string          `gorm:"type:text" json:"shipping_address"`
	City              string          `gorm:"size:128" json:"city"`
	Items             []OrderItem     `gorm:"foreignKey:OrderID" json:"items"`
	TotalAmount       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Status            OrderStatus     `gorm:"size:32;index;not null" json:"status"`
	Channel           string          `gorm:"size:16;not null" json:"channel"`
	OrderDate         time.Time       `gorm:"index" json:"order_date"`
	PaystackReference *string         `gorm:"size:128;uniqueIndex" json:"paystack_reference,omitempty"`
	UserID            *string         `gorm:"size:128;index" json:"user_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// OrderItem is a line of an order with the price and display data at purchase time.
type OrderItem struct {
	ID          uint            `gorm:"primaryKey" json:"-"`
	OrderID     string          `gorm:"size:36;index;not null" json:"-"`
	Position    int             `gorm:"not null" json:"position"`
	ProductID   string          `gorm:"size:64;not null" json:"product_id"`
	Size        string          `gorm:"size:64" json:"size"`
	Quantity    int64           `gorm:"not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	ProductName string          `gorm:"size:255" json:"product_name"`
	ImageURL    string          `gorm:"size:512" json:"image_url,omitempty"`
}

// InventoryKey returns the ledger key the item draws from.
func (i OrderItem) InventoryKey() string {
	return InventoryKey(i.ProductID, i.Size)
}

// ProductionRun is the append-only audit record of a manufacturing run.
type ProductionRun struct {
	ID                 string             `gorm:"primaryKey;size:36" json:"id"`
	FinishedGoodItemID string             `gorm:"size:128;index;not null" json:"finished_good_item_id"`
	ProductID          string             `gorm:"size:64" json:"product_id"`
	Size               string             `gorm:"size:64" json:"size"`
	ProductName        string             `gorm:"size:255" json:"product_name"`
	QuantityProduced   int64              `gorm:"not null" json:"quantity_produced"`
	ConsumedMaterials  []ConsumedMaterial `gorm:"foreignKey:ProductionRunID" json:"consumed_materials"`
	OperatorID         string             `gorm:"size:128" json:"operator_id"`
	OperatorName       string             `gorm:"size:255" json:"operator_name"`
	CreatedAt          time.Time          `gorm:"index" json:"created_at"`
}

// ConsumedMaterial is one raw material drawn down by a production run.
type ConsumedMaterial struct {
	ID               uint            `gorm:"primaryKey" json:"-"`
	ProductionRunID  string          `gorm:"size:36;index;not null" json:"-"`
	RawMaterialID    string          `gorm:"size:36;not null" json:"raw_material_id"`
	RawMaterialName  string          `gorm:"size:255" json:"raw_material_name"`
	QuantityConsumed decimal.Decimal `gorm:"type:numeric(14,3);not null" json:"quantity_consumed"`
}

// Referral is a short link that counts clicks before redirecting.
type Referral struct {
	ID             string    `gorm:"primaryKey;size:36" json:"id"`
	ShortCode      string    `gorm:"size:32;uniqueIndex;not null" json:"short_code"`
	DestinationURL string    `gorm:"type:text;not null" json:"destination_url"`
	Campaign       string    `gorm:"size:128" json:"campaign,omitempty"`
	Clicks         int64     `gorm:"not null" json:"clicks"`
	CreatedBy      string    `gorm:"size:128" json:"created_by,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// All returns every model for migration.
func All() []interface{} {
	return []interface{}{
		&Product{},
		&InventoryEntry{},
		&RawMaterial{},
		&MaterialIntake{},
		&Order{},
		&OrderItem{},
		&ProductionRun{},
		&ConsumedMaterial{},
		&Referral{},
	}
}
