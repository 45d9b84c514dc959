package domain

import "context"

type Outlet struct {
	OutletID      int        `gorm:"primaryKey" json:"outlet_id"`
	OutletName    string     `gorm:"size:200;not null" json:"outlet_name"`
	OutletAddress string     `gorm:"size:500" json:"outlet_address"`
	UserID        string     `gorm:"size:100;index;not null" json:"user_id"`
	Status        string     `gorm:"size:20;index;not null" json:"status"`
	SiteURL       string     `gorm:"size:300" json:"site_url"`
	RequestSite   int        `gorm:"not null;default:0" json:"request_site"`
	Categories    []Category `gorm:"foreignKey:OutletID;references:OutletID" json:"categories,omitempty"`
}

type Category struct {
	CategoryID       int     `gorm:"primaryKey" json:"category_id"`
	CategoryName     string  `gorm:"size:200;not null" json:"category_name"`
	ParentCategoryID *int    `gorm:"index" json:"parent_category_id,omitempty"`
	OutletID         *int    `gorm:"index" json:"outlet_id,omitempty"`
	Outlet           *Outlet `gorm:"foreignKey:OutletID;references:OutletID" json:"-"`
}

type OutletModel struct {
	OutletID      int    `json:"outlet_id"`
	OutletName    string `json:"outlet_name" validate:"required,max=200"`
	OutletAddress string `json:"outlet_address" validate:"max=500"`
	UserID        string `json:"user_id" validate:"required"`
}

type CategoryModel struct {
	CategoryID       int    `json:"category_id"`
	CategoryName     string `json:"category_name" validate:"required,max=200"`
	ParentCategoryID *int   `json:"parent_category_id,omitempty"`
	OutletID         int    `json:"outlet_id" validate:"required,gt=0"`
}

// OutletService never returns errors: failures are written to the crash log and
// reported through nil or empty results, or an Outcome.
type OutletService interface {
	AddOutlet(ctx context.Context, outlet OutletModel) []OutletModel
	UpdateOutlet(ctx context.Context, outlet OutletModel) []OutletModel
	ArchiveOutlet(ctx context.Context, outlet OutletModel) []OutletModel
	GetOutletsByUserID(ctx context.Context, userID string) []OutletModel
	GetOutlet(ctx context.Context, outletID int) *OutletModel
	OrderSite(ctx context.Context, outletID int) (Outcome, string)
}

type CategoryService interface {
	AddCategory(ctx context.Context, category CategoryModel) bool
	GetCategories(ctx context.Context, outletID int) []CategoryModel
}
