package domain

import (
	"context"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

type Subscription struct {
	SubscriptionID int             `gorm:"primaryKey" json:"subscription_id"`
	Name           string          `gorm:"size:100;not null" json:"name"`
	DurationDays   int             `gorm:"not null" json:"duration_days"`
	Price          decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"price"`
	Status         string          `gorm:"size:20;index;not null" json:"status"`
}

type SubscribedService struct {
	SubscribedServiceID string    `gorm:"primaryKey;size:36" json:"subscribed_service_id"`
	UserID              string    `gorm:"size:100;index;not null" json:"user_id"`
	SubscriptionID      int       `gorm:"index;not null" json:"subscription_id"`
	StartDate           time.Time `gorm:"not null" json:"start_date"`
	EndDate             time.Time `gorm:"index;not null" json:"end_date"`
	Status              string    `gorm:"size:20;index;not null" json:"status"`
}

type SubscribedServiceModel struct {
	SubscribedServiceID string    `json:"subscribed_service_id"`
	SubscriptionID      int       `json:"subscription_id"`
	SubscriptionName    string    `json:"subscription_name"`
	StartDate           time.Time `json:"start_date"`
	EndDate             time.Time `json:"end_date"`
	Status              string    `json:"status"`
}

type Pagination struct {
	PageNo   int `json:"page_no"`
	PageSize int `json:"page_size"`
}

func (p Pagination) Normalize(defaultSize int) Pagination {
	if p.PageNo < 1 {
		p.PageNo = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset saturates at math.MaxInt so a page past any real table stays empty.
func (p Pagination) Offset() int {
	if p.PageNo <= 1 || p.PageSize <= 0 {
		return 0
	}
	if p.PageNo-1 > math.MaxInt/p.PageSize {
		return math.MaxInt
	}
	return (p.PageNo - 1) * p.PageSize
}

type SubscriptionService interface {
	Subscribe(ctx context.Context, userID string, subscriptionID int) bool
	GetActiveSubscriptions(ctx context.Context, userID string) []SubscribedServiceModel
	GetSubscriptionHistory(ctx context.Context, page Pagination, userID string) []SubscribedServiceModel
	HasSubscription(ctx context.Context, userID string, subscriptionID int) bool
}
