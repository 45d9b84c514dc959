package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"storefront/internal/audit"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/pkg/clock"
	"storefront/pkg/logger"
)

type SubscriptionService struct {
	base
	clock    clock.Clock
	pageSize int
}

func NewSubscriptionService(db *gorm.DB, recorder *audit.Recorder, clk clock.Clock, pageSize int, logger logger.Logger) domain.SubscriptionService {
	if clk == nil {
		clk = clock.NewRealClock()
	}
	if pageSize <= 0 {
		pageSize = domain.StandardPageSize
	}
	return &SubscriptionService{
		base:     newBase("SubscriptionService", db, recorder, logger),
		clock:    clk,
		pageSize: pageSize,
	}
}

func (s *SubscriptionService) Subscribe(ctx context.Context, userID string, subscriptionID int) bool {
	sess := s.open(ctx)
	plans := repository.NewSubscriptionRepository(sess)
	subscribed := repository.NewSubscribedServiceRepository(sess)
	data := map[string]interface{}{"user_id": userID, "subscription_id": subscriptionID}

	plan, err := plans.Find(store.IntKey(subscriptionID))
	if err == nil && (plan == nil || plan.Status != domain.StatusActive) {
		err = fmt.Errorf("subscribe %s to %d: %w", userID, subscriptionID, domain.ErrSubscriptionNotFound)
	}
	if err != nil {
		s.fail(sess, "Subscribe", err, data, plans, subscribed)
		return false
	}

	start := s.clock.Now().UTC()
	err = subscribed.Add(&domain.SubscribedService{
		SubscribedServiceID: uuid.NewString(),
		UserID:              userID,
		SubscriptionID:      plan.SubscriptionID,
		StartDate:           start,
		EndDate:             start.AddDate(0, 0, plan.DurationDays),
		Status:              domain.StatusActive,
	})
	if err != nil {
		s.fail(sess, "Subscribe", err, data, plans, subscribed)
		return false
	}
	return true
}

// GetActiveSubscriptions lists the subscriptions of userID that have not ended.
func (s *SubscriptionService) GetActiveSubscriptions(ctx context.Context, userID string) []domain.SubscribedServiceModel {
	sess := s.open(ctx)
	subscribed := repository.NewSubscribedServiceRepository(sess)

	q := s.active(subscribed, userID, s.clock.Now().UTC()).Order("subscribed_services.end_date")
	models, err := subscribedModels(q)
	if err != nil {
		s.fail(sess, "GetActiveSubscriptions", err, userID, subscribed)
		return nil
	}
	return models
}

// GetSubscriptionHistory pages through every subscription of userID, newest
// first.
func (s *SubscriptionService) GetSubscriptionHistory(ctx context.Context, page domain.Pagination, userID string) []domain.SubscribedServiceModel {
	sess := s.open(ctx)
	subscribed := repository.NewSubscribedServiceRepository(sess)
	page = page.Normalize(s.pageSize)

	q := withPlanName(subscribed.AsQueryable()).
		Where("subscribed_services.user_id = ?", userID).
		Order("subscribed_services.start_date DESC").
		Offset(page.Offset()).
		Limit(page.PageSize)
	models, err := subscribedModels(q)
	if err != nil {
		s.fail(sess, "GetSubscriptionHistory", err, map[string]interface{}{"user_id": userID, "page": page}, subscribed)
		return nil
	}
	return models
}

func (s *SubscriptionService) HasSubscription(ctx context.Context, userID string, subscriptionID int) bool {
	sess := s.open(ctx)
	subscribed := repository.NewSubscribedServiceRepository(sess)

	found, err := s.active(subscribed, userID, s.clock.Now().UTC()).
		Where("subscribed_services.subscription_id = ?", subscriptionID).
		Any()
	if err != nil {
		s.fail(sess, "HasSubscription", err, map[string]interface{}{"user_id": userID, "subscription_id": subscriptionID}, subscribed)
		return false
	}
	return found
}

func (s *SubscriptionService) active(subscribed repository.SubscribedServiceRepository, userID string, now time.Time) *repository.Query[domain.SubscribedService] {
	return withPlanName(subscribed.AsQueryable()).
		Where("subscribed_services.user_id = ? AND subscribed_services.status = ?", userID, domain.StatusActive).
		Where("subscribed_services.end_date > ?", now)
}

func withPlanName(q *repository.Query[domain.SubscribedService]) *repository.Query[domain.SubscribedService] {
	return q.Joins("LEFT JOIN subscriptions ON subscriptions.subscription_id = subscribed_services.subscription_id")
}

type subscribedRow struct {
	SubscribedServiceID string
	SubscriptionID      int
	Name                string
	StartDate           time.Time
	EndDate             time.Time
	Status              string
}

func subscribedModels(q *repository.Query[domain.SubscribedService]) ([]domain.SubscribedServiceModel, error) {
	var rows []subscribedRow
	err := q.Select("subscribed_services.subscribed_service_id, subscribed_services.subscription_id, subscriptions.name, " +
		"subscribed_services.start_date, subscribed_services.end_date, subscribed_services.status").
		Scan(&rows)
	if err != nil {
		return nil, err
	}

	models := make([]domain.SubscribedServiceModel, 0, len(rows))
	for _, r := range rows {
		models = append(models, domain.SubscribedServiceModel{
			SubscribedServiceID: r.SubscribedServiceID,
			SubscriptionID:      r.SubscriptionID,
			SubscriptionName:    r.Name,
			StartDate:           r.StartDate,
			EndDate:             r.EndDate,
			Status:              r.Status,
		})
	}
	return models, nil
}
