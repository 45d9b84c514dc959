package service

import (
	"context"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"storefront/internal/audit"
	"storefront/internal/domain"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/pkg/logger"
)

const (
	msgSiteExists  = "You already have a site for this outlet</br>Visit : "
	msgSiteOrdered = "Site order placed successfully"
	msgSiteFailed  = "An internal error has occured"
	msgNoOutlet    = "Outlet not found"
)

type OutletService struct {
	base
}

func NewOutletService(db *gorm.DB, recorder *audit.Recorder, logger logger.Logger) domain.OutletService {
	return &OutletService{base: newBase("OutletService", db, recorder, logger)}
}

func (s *OutletService) AddOutlet(ctx context.Context, outlet domain.OutletModel) []domain.OutletModel {
	sess := s.open(ctx)
	outlets := repository.NewOutletRepository(sess)

	err := outlets.Add(&domain.Outlet{
		OutletName:    outlet.OutletName,
		OutletAddress: outlet.OutletAddress,
		UserID:        outlet.UserID,
		Status:        domain.StatusActive,
	})
	if err != nil {
		s.fail(sess, "AddOutlet", err, outlet.UserID, outlets)
		return nil
	}

	active, err := activeOutlets(outlets, outlet.UserID)
	if err != nil {
		s.fail(sess, "AddOutlet", err, outlet.UserID, outlets)
		return nil
	}
	return active
}

func (s *OutletService) UpdateOutlet(ctx context.Context, outlet domain.OutletModel) []domain.OutletModel {
	sess := s.open(ctx)
	outlets := repository.NewOutletRepository(sess)

	existing, err := outlets.AsQueryable().Where("outlet_id = ?", outlet.OutletID).First()
	if err == nil && existing != nil {
		existing.OutletName = outlet.OutletName
		existing.OutletAddress = outlet.OutletAddress
		existing.UserID = outlet.UserID
		err = outlets.Update(existing)
	}
	if err != nil {
		s.fail(sess, "UpdateOutlet", err, outlet.UserID, outlets)
		return []domain.OutletModel{}
	}

	active, err := activeOutlets(outlets, outlet.UserID)
	if err != nil {
		s.fail(sess, "UpdateOutlet", err, outlet.UserID, outlets)
		return []domain.OutletModel{}
	}
	return active
}

func (s *OutletService) ArchiveOutlet(ctx context.Context, outlet domain.OutletModel) []domain.OutletModel {
	sess := s.open(ctx)
	outlets := repository.NewOutletRepository(sess)

	existing, err := outlets.AsQueryable().Where("outlet_id = ?", outlet.OutletID).First()
	if err != nil {
		s.fail(sess, "ArchiveOutlet", err, outlet.UserID, outlets)
		return []domain.OutletModel{}
	}

	userID := outlet.UserID
	if existing != nil {
		userID = existing.UserID
		existing.Status = domain.StatusArchived
		if err := outlets.Update(existing); err != nil {
			s.fail(sess, "ArchiveOutlet", err, existing.UserID, outlets)
			return []domain.OutletModel{}
		}
	}

	active, err := activeOutlets(outlets, userID)
	if err != nil {
		s.fail(sess, "ArchiveOutlet", err, userID, outlets)
		return []domain.OutletModel{}
	}
	return active
}

func (s *OutletService) GetOutletsByUserID(ctx context.Context, userID string) []domain.OutletModel {
	sess := s.open(ctx)
	outlets := repository.NewOutletRepository(sess)

	active, err := activeOutlets(outlets, userID)
	if err != nil {
		s.fail(sess, "GetOutletsByUserID", err, userID, outlets)
		return nil
	}
	return active
}

func (s *OutletService) GetOutlet(ctx context.Context, outletID int) *domain.OutletModel {
	sess := s.open(ctx)
	outlets := repository.NewOutletRepository(sess)

	outlet, err := outlets.Find(store.IntKey(outletID))
	if err != nil {
		s.fail(sess, "GetOutlet", err, strconv.Itoa(outletID), outlets)
		return nil
	}
	if outlet == nil {
		return nil
	}

	model := toOutletModel(outlet)
	return &model
}

// OrderSite flags the outlet for a storefront site. It is rejected when the
// outlet is unknown or already has a site.
func (s *OutletService) OrderSite(ctx context.Context, outletID int) (domain.Outcome, string) {
	sess := s.open(ctx)
	outlets := repository.NewOutletRepository(sess)

	outlet, err := outlets.Find(store.IntKey(outletID))
	if err != nil {
		s.fail(sess, "OrderSite", err, strconv.Itoa(outletID), outlets)
		return domain.OutcomeFailed, msgSiteFailed
	}
	if outlet == nil {
		return domain.OutcomeRejected, msgNoOutlet
	}
	if outlet.SiteURL != "" {
		return domain.OutcomeRejected, msgSiteExists + outlet.SiteURL
	}

	outlet.RequestSite = domain.RequestSiteOrdered
	if err := outlets.Update(outlet); err != nil {
		s.fail(sess, "OrderSite", err, strconv.Itoa(outletID), outlets)
		return domain.OutcomeFailed, msgSiteFailed
	}
	return domain.OutcomeAccepted, msgSiteOrdered
}

func activeOutlets(outlets repository.OutletRepository, userID string) ([]domain.OutletModel, error) {
	rows, err := outlets.AsQueryable().
		Where("user_id = ? AND status = ?", userID, domain.StatusActive).
		Order("outlet_id").
		Find()
	if err != nil {
		return nil, fmt.Errorf("list active outlets of %s: %w", userID, err)
	}

	models := make([]domain.OutletModel, 0, len(rows))
	for _, o := range rows {
		models = append(models, toOutletModel(o))
	}
	return models, nil
}

func toOutletModel(o *domain.Outlet) domain.OutletModel {
	return domain.OutletModel{
		OutletID:      o.OutletID,
		OutletName:    o.OutletName,
		OutletAddress: o.OutletAddress,
		UserID:        o.UserID,
	}
}
