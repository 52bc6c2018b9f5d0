package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/caterbase/caterbase-backend/pkg/enums"
)

// Product is a catering catalog item. Status is derived from StockQuantity
// and LowStockThreshold and kept in sync by the inventory package, which owns
// every stock write.
type Product struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string              `gorm:"column:name;not null"`
	Description       *string             `gorm:"column:description"`
	Tags              pq.StringArray      `gorm:"column:tags;type:text[];default:ARRAY[]::text[]"`
	UnitPrice         decimal.Decimal     `gorm:"column:unit_price;type:numeric(12,2);not null"`
	DiscountType      *enums.DiscountType `gorm:"column:discount_type"`
	DiscountValue     *decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2)"`
	DiscountExpiresAt *time.Time          `gorm:"column:discount_expires_at"`
	StockQuantity     int                 `gorm:"column:stock_quantity;not null;default:0"`
	LowStockThreshold int                 `gorm:"column:low_stock_threshold;not null;default:5"`
	Status            enums.ProductStatus `gorm:"column:status;not null;default:'outOfStock'"`
	ImageURL          *string             `gorm:"column:image_url"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
