package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/pkg/logger"
)

func TestOutletService_AddOutletReturnsActiveOutlets(t *testing.T) {
	f := newFixture(t)
	svc := NewOutletService(f.db, f.recorder, logger.Nop())

	first := svc.AddOutlet(ctx, domain.OutletModel{OutletName: "Main", OutletAddress: "1 High St", UserID: "u1"})
	require.Len(t, first, 1)
	assert.Equal(t, "Main", first[0].OutletName)
	assert.NotZero(t, first[0].OutletID)

	second := svc.AddOutlet(ctx, domain.OutletModel{OutletName: "Annex", UserID: "u1"})
	assert.Len(t, second, 2)
	assert.Empty(t, f.crashLogs(t))
}

func TestOutletService_AddOutletFailureIsAudited(t *testing.T) {
	f := newFixture(t)
	svc := NewOutletService(f.db, f.recorder, logger.Nop())
	f.dropTable(t, &domain.Outlet{})

	assert.Nil(t, svc.AddOutlet(ctx, domain.OutletModel{OutletName: "Main", UserID: "u1"}))

	logs := f.crashLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, "OutletService", logs[0].ClassName)
	assert.Equal(t, "AddOutlet", logs[0].MethodName)
	assert.Equal(t, "u1", logs[0].Data)
	assert.Contains(t, logs[0].ErrorMessage, "outlets")
}

func TestOutletService_UpdateAndArchive(t *testing.T) {
	f := newFixture(t)
	svc := NewOutletService(f.db, f.recorder, logger.Nop())
	main := f.outlet(t, "Main", "u1")
	f.outlet(t, "Annex", "u1")

	updated := svc.UpdateOutlet(ctx, domain.OutletModel{OutletID: main.OutletID, OutletName: "Flagship", OutletAddress: "2 High St", UserID: "u1"})
	require.Len(t, updated, 2)
	assert.Equal(t, "Flagship", updated[0].OutletName)

	got := svc.GetOutlet(ctx, main.OutletID)
	require.NotNil(t, got)
	assert.Equal(t, "2 High St", got.OutletAddress)

	remaining := svc.ArchiveOutlet(ctx, domain.OutletModel{OutletID: main.OutletID})
	require.Len(t, remaining, 1)
	assert.Equal(t, "Annex", remaining[0].OutletName)

	assert.Len(t, svc.GetOutletsByUserID(ctx, "u1"), 1)
	assert.Empty(t, svc.GetOutletsByUserID(ctx, "u2"))
}

func TestOutletService_GetOutletMissing(t *testing.T) {
	f := newFixture(t)
	svc := NewOutletService(f.db, f.recorder, logger.Nop())

	assert.Nil(t, svc.GetOutlet(ctx, 404))
	assert.Empty(t, f.crashLogs(t))
}

func TestOutletService_OrderSite(t *testing.T) {
	f := newFixture(t)
	svc := NewOutletService(f.db, f.recorder, logger.Nop())
	plain := f.outlet(t, "Main", "u1")
	withSite := &domain.Outlet{OutletName: "Web", UserID: "u1", Status: domain.StatusActive, SiteURL: "https://web.example"}
	require.NoError(t, f.db.Create(withSite).Error)

	outcome, msg := svc.OrderSite(ctx, plain.OutletID)
	assert.Equal(t, domain.OutcomeAccepted, outcome)
	assert.Equal(t, msgSiteOrdered, msg)

	var stored domain.Outlet
	require.NoError(t, f.db.First(&stored, plain.OutletID).Error)
	assert.Equal(t, domain.RequestSiteOrdered, stored.RequestSite)

	outcome, msg = svc.OrderSite(ctx, withSite.OutletID)
	assert.Equal(t, domain.OutcomeRejected, outcome)
	assert.Contains(t, msg, "https://web.example")

	outcome, _ = svc.OrderSite(ctx, 999)
	assert.Equal(t, domain.OutcomeRejected, outcome)
}

func TestOutletService_OrderSiteFailure(t *testing.T) {
	f := newFixture(t)
	svc := NewOutletService(f.db, f.recorder, logger.Nop())
	f.dropTable(t, &domain.Outlet{})

	outcome, msg := svc.OrderSite(ctx, 1)
	assert.Equal(t, domain.OutcomeFailed, outcome)
	assert.Equal(t, msgSiteFailed, msg)

	logs := f.crashLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, "OrderSite", logs[0].MethodName)
	assert.Equal(t, "1", logs[0].Data)
}
