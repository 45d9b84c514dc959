package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ProductUnitType struct {
	UnitTypeIDs   int    `gorm:"column:unit_type_ids;primaryKey;autoIncrement:false" json:"unit_type_id"`
	UnitTypeNames string `gorm:"size:100;not null" json:"unit_type_name"`
	Status        string `gorm:"size:20;index;not null" json:"status"`
}

type Product struct {
	ProductID         int             `gorm:"primaryKey;autoIncrement:false" json:"product_id"`
	ProductName       string          `gorm:"size:200;not null" json:"product_name"`
	CategoryID        int             `gorm:"index;not null" json:"category_id"`
	Description       string          `gorm:"type:text" json:"description"`
	ShortDescription  string          `gorm:"size:500" json:"short_description"`
	Specifications    string          `gorm:"type:text" json:"specifications"`
	ProductUnitTypeID int             `gorm:"index" json:"product_unit_type_id"`
	Price             decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"price"`
	Quantity          int             `gorm:"not null;default:0" json:"quantity"`
	Status            string          `gorm:"size:20;index;not null" json:"status"`
}

type InventoryLog struct {
	InventoryLogID      int             `gorm:"primaryKey;autoIncrement:false" json:"inventory_log_id"`
	ProductID           int             `gorm:"index;not null" json:"product_id"`
	ActivityDate        time.Time       `gorm:"not null" json:"activity_date"`
	InventoryUpdateType string          `gorm:"size:20;not null" json:"inventory_update_type"`
	Price               decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"price"`
	Quantity            int             `gorm:"not null" json:"quantity"`
}

type ProductUnitTypeModel struct {
	UnitTypeID   int    `json:"unit_type_id"`
	UnitTypeName string `json:"unit_type_name" validate:"required,max=100"`
}

type ProductModel struct {
	ProductID          int             `json:"product_id"`
	ProductName        string          `json:"product_name" validate:"max=200"`
	CategoryID         int             `json:"category_id"`
	SubCategoryID      int             `json:"sub_category_id"`
	ProductDescription string          `json:"product_description"`
	ShortDescription   string          `json:"short_description" validate:"max=500"`
	ProductSpecs       string          `json:"product_specs"`
	UnitID             int             `json:"unit_id"`
	RetailPrice        decimal.Decimal `json:"retail_price"`
	PurchasingPrice    decimal.Decimal `json:"purchasing_price"`
	Quantity           int             `json:"quantity" validate:"gte=0"`
	OutletName         string          `json:"outlet_name,omitempty"`
}

type ProductService interface {
	GetProductUnitTypes(ctx context.Context) []ProductUnitTypeModel
	AddProductUnitType(ctx context.Context, unitType ProductUnitTypeModel) bool
	PurchaseProduct(ctx context.Context, product ProductModel) bool
	SellProduct(ctx context.Context, product ProductModel) Outcome
	GetInventory(ctx context.Context, userID string, outletID int) []ProductModel
	ArchiveProduct(ctx context.Context, userID string, productID int) Outcome
}
