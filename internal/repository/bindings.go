package repository

import (
	"storefront/internal/domain"
	"storefront/internal/store"
)

type OutletRepository interface {
	Repository[domain.Outlet]
}

type CategoryRepository interface {
	Repository[domain.Category]
}

type ProductRepository interface {
	Repository[domain.Product]
}

type ProductUnitTypeRepository interface {
	Repository[domain.ProductUnitType]
}

type InventoryLogRepository interface {
	Repository[domain.InventoryLog]
}

// CrashLogRepository is the sink of the failure audit trail. Rows are only ever
// appended.
type CrashLogRepository interface {
	Repository[domain.Crashlog]
}

type SubscriptionRepository interface {
	Repository[domain.Subscription]
}

type SubscribedServiceRepository interface {
	Repository[domain.SubscribedService]
}

func NewOutletRepository(s *store.Session) OutletRepository {
	return New[domain.Outlet](s)
}

func NewCategoryRepository(s *store.Session) CategoryRepository {
	return New[domain.Category](s)
}

func NewProductRepository(s *store.Session) ProductRepository {
	return New[domain.Product](s)
}

func NewProductUnitTypeRepository(s *store.Session) ProductUnitTypeRepository {
	return New[domain.ProductUnitType](s)
}

func NewInventoryLogRepository(s *store.Session) InventoryLogRepository {
	return New[domain.InventoryLog](s)
}

func NewCrashLogRepository(s *store.Session) CrashLogRepository {
	return New[domain.Crashlog](s)
}

func NewSubscriptionRepository(s *store.Session) SubscriptionRepository {
	return New[domain.Subscription](s)
}

func NewSubscribedServiceRepository(s *store.Session) SubscribedServiceRepository {
	return New[domain.SubscribedService](s)
}
