package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/internal/audit"
	"storefront/internal/domain"
	"storefront/internal/storetest"
	"storefront/pkg/clock"
	"storefront/pkg/logger"
)

var (
	ctx    = context.Background()
	origin = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	db       *gorm.DB
	clock    *clock.MockClock
	recorder *audit.Recorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clk := clock.NewMockClock(origin)
	return &fixture{
		db:       storetest.NewDB(t),
		clock:    clk,
		recorder: audit.NewRecorder(audit.DefaultPolicy(), clk, logger.Nop()),
	}
}

func (f *fixture) crashLogs(t *testing.T) []domain.Crashlog {
	t.Helper()
	var logs []domain.Crashlog
	require.NoError(t, f.db.Order("crash_log_id").Find(&logs).Error)
	return logs
}

func (f *fixture) outlet(t *testing.T, name, userID string) *domain.Outlet {
	t.Helper()
	o := &domain.Outlet{OutletName: name, UserID: userID, Status: domain.StatusActive}
	require.NoError(t, f.db.Create(o).Error)
	return o
}

func (f *fixture) category(t *testing.T, outlet *domain.Outlet, name string) *domain.Category {
	t.Helper()
	outletID := outlet.OutletID
	c := &domain.Category{CategoryName: name, OutletID: &outletID}
	require.NoError(t, f.db.Omit("Outlet").Create(c).Error)
	return c
}

func (f *fixture) dropTable(t *testing.T, model interface{}) {
	t.Helper()
	require.NoError(t, f.db.Migrator().DropTable(model))
}
