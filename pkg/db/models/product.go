package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/voltline/voltline-backend/pkg/enums"
)

// Product represents the canonical supplier listing. Voltage is stored as a
// numeric string so 3.7 and 12.8 survive round trips without float drift.
type Product struct {
	ID                       uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SupplierID               uuid.UUID               `gorm:"column:supplier_id;type:uuid;not null;uniqueIndex:ux_products_supplier_sku"`
	SKU                      string                  `gorm:"column:sku;not null;uniqueIndex:ux_products_supplier_sku"`
	Title                    string                  `gorm:"column:title;not null"`
	Description              *string                 `gorm:"column:description"`
	Chemistry                enums.BatteryChemistry  `gorm:"column:chemistry;type:battery_chemistry;not null"`
	Voltage                  string                  `gorm:"column:voltage;type:numeric(6,2);not null"`
	CapacityMAH              int                     `gorm:"column:capacity_mah;not null"`
	FormFactor               enums.FormFactor        `gorm:"column:form_factor;type:form_factor;not null"`
	Certifications           pq.StringArray          `gorm:"column:certifications;type:text[];not null;default:ARRAY[]::text[]"`
	PriceCents               int                     `gorm:"column:price_cents;not null"`
	CompareAtPriceCents      *int                    `gorm:"column:compare_at_price_cents"`
	MOQ                      int                     `gorm:"column:moq;not null;default:1"`
	MaxQty                   int                     `gorm:"column:max_qty;not null;default:0"`
	IsActive                 bool                    `gorm:"column:is_active;not null;default:true"`
	IsFeatured               bool                    `gorm:"column:is_featured;not null;default:false"`
	SupportsEngraving        bool                    `gorm:"column:supports_engraving;not null;default:false"`
	EngravingSetupFeeCents   int                     `gorm:"column:engraving_setup_fee_cents;not null;default:0"`
	EngravingPerCharFeeCents int                     `gorm:"column:engraving_per_char_fee_cents;not null;default:0"`
	EngravingMaxChars        int                     `gorm:"column:engraving_max_chars;not null;default:0"`
	Inventory                *InventoryItem          `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	VolumeDiscounts          []ProductVolumeDiscount `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt                time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
