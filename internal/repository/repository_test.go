package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"storefront/internal/domain"
	"storefront/internal/store"
	"storefront/internal/storetest"
)

func openSession(db *gorm.DB) *store.Session {
	return store.Open(context.Background(), db, nil)
}

func newOutlet(name, userID string) *domain.Outlet {
	return &domain.Outlet{OutletName: name, UserID: userID, Status: domain.StatusActive}
}

func TestRepository_AddAssignsKeyAndTracksUnchanged(t *testing.T) {
	s := openSession(storetest.NewDB(t))
	repo := NewOutletRepository(s)

	outlet := newOutlet("Main", "u1")
	require.NoError(t, repo.Add(outlet))

	assert.NotZero(t, outlet.OutletID)
	assert.Equal(t, store.Unchanged, s.State(outlet))
}

func TestRepository_GetReturnsNilWhenNothingMatches(t *testing.T) {
	repo := NewOutletRepository(openSession(storetest.NewDB(t)))
	require.NoError(t, repo.Add(newOutlet("Main", "u1")))

	found, err := repo.Get(Where("user_id = ?", "nobody"))
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestRepository_GetSupportsArbitraryFieldPredicates(t *testing.T) {
	repo := NewOutletRepository(openSession(storetest.NewDB(t)))
	require.NoError(t, repo.Add(newOutlet("Main", "u1")))
	require.NoError(t, repo.Add(newOutlet("Annex", "u1")))

	found, err := repo.Get(Where(&domain.Outlet{OutletName: "Annex", UserID: "u1"}))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Annex", found.OutletName)
}

func TestRepository_GetDetachesPendingChanges(t *testing.T) {
	s := openSession(storetest.NewDB(t))
	repo := NewOutletRepository(s)

	pending := newOutlet("Never written", "u1")
	require.NoError(t, s.Track(pending, store.Added))

	_, err := repo.Get(Where("user_id = ?", "u1"))
	require.NoError(t, err)

	assert.Equal(t, store.Detached, s.State(pending))
	assert.False(t, s.HasPending())
}

func TestRepository_UpdatedValuesVisibleAfterDetach(t *testing.T) {
	db := storetest.NewDB(t)
	s := openSession(db)
	repo := NewOutletRepository(s)

	outlet := newOutlet("Before", "u1")
	require.NoError(t, repo.Add(outlet))

	outlet.OutletName = "After"
	require.NoError(t, repo.Update(outlet))
	repo.Rollback()

	found, err := repo.Find(store.IntKey(outlet.OutletID))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "After", found.OutletName)

	fresh, err := NewOutletRepository(openSession(db)).Find(store.IntKey(outlet.OutletID))
	require.NoError(t, err)
	require.NotNil(t, fresh)
	assert.Equal(t, "After", fresh.OutletName)
}

func TestRepository_UpdateOfUntrackedEntity(t *testing.T) {
	db := storetest.NewDB(t)
	repo := NewOutletRepository(openSession(db))
	outlet := newOutlet("Main", "u1")
	require.NoError(t, repo.Add(outlet))

	detached := &domain.Outlet{OutletID: outlet.OutletID, OutletName: "Renamed", UserID: "u1", Status: domain.StatusActive}
	other := NewOutletRepository(openSession(db))
	require.NoError(t, other.Update(detached))

	found, err := NewOutletRepository(openSession(db)).Find(store.IntKey(outlet.OutletID))
	require.NoError(t, err)
	assert.Equal(t, "Renamed", found.OutletName)
}

func TestRepository_UpdateOfMissingRowFails(t *testing.T) {
	repo := NewOutletRepository(openSession(storetest.NewDB(t)))

	err := repo.Update(&domain.Outlet{OutletID: 99, OutletName: "Ghost", UserID: "u1", Status: domain.StatusActive})
	assert.ErrorIs(t, err, store.ErrNoRowsAffected)
}

func TestRepository_RollbackDoesNotUndoFlushedMutations(t *testing.T) {
	db := storetest.NewDB(t)
	repo := NewOutletRepository(openSession(db))

	kept := newOutlet("Kept", "u1")
	require.NoError(t, repo.Add(kept))
	removed := newOutlet("Removed", "u1")
	require.NoError(t, repo.Add(removed))

	kept.Status = domain.StatusArchived
	require.NoError(t, repo.Update(kept))
	require.NoError(t, repo.Delete(removed))
	repo.Rollback()

	check := NewOutletRepository(openSession(db))
	found, err := check.Find(store.IntKey(kept.OutletID))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, domain.StatusArchived, found.Status)

	gone, err := check.Find(store.IntKey(removed.OutletID))
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestRepository_RollbackDiscardsFailedWrites(t *testing.T) {
	s := openSession(storetest.NewDB(t))
	repo := NewProductUnitTypeRepository(s)
	require.NoError(t, repo.Add(&domain.ProductUnitType{UnitTypeIDs: 1, UnitTypeNames: "kg", Status: domain.StatusActive}))

	duplicate := &domain.ProductUnitType{UnitTypeIDs: 1, UnitTypeNames: "pcs", Status: domain.StatusActive}
	err := repo.Add(duplicate)
	require.Error(t, err)
	assert.True(t, store.IsDuplicateKey(err))
	assert.Equal(t, store.Added, s.State(duplicate))

	repo.Rollback()
	assert.Equal(t, store.Detached, s.State(duplicate))
	assert.NoError(t, repo.Save(), "nothing left to flush after rollback")
}

func TestRepository_FindUsesIdentityMap(t *testing.T) {
	s := openSession(storetest.NewDB(t))
	repo := NewOutletRepository(s)
	outlet := newOutlet("Main", "u1")
	require.NoError(t, repo.Add(outlet))

	found, err := repo.Find(store.IntKey(outlet.OutletID))
	require.NoError(t, err)
	assert.Same(t, outlet, found)

	missing, err := repo.Find(store.IntKey(outlet.OutletID + 100))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepository_FindNonFiniteFloatIsNotFound(t *testing.T) {
	repo := NewOutletRepository(openSession(storetest.NewDB(t)))
	require.NoError(t, repo.Add(newOutlet("Main", "u1")))

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		found, err := repo.Find(store.FloatKey(f))
		require.NoError(t, err)
		assert.Nil(t, found)
	}
}

func TestRepository_SaveFlushesEveryStagedEntry(t *testing.T) {
	db := storetest.NewDB(t)
	s := openSession(db)
	repo := NewOutletRepository(s)

	renamed := newOutlet("Old name", "u1")
	removed := newOutlet("Closing", "u1")
	require.NoError(t, repo.Add(renamed))
	require.NoError(t, repo.Add(removed))

	added := []*domain.Outlet{newOutlet("North", "u2"), newOutlet("South", "u2")}
	for _, o := range added {
		require.NoError(t, s.Track(o, store.Added))
	}
	renamed.OutletName = "New name"
	require.NoError(t, s.Track(renamed, store.Modified))
	require.NoError(t, s.Track(removed, store.Deleted))
	require.True(t, s.HasPending())

	require.NoError(t, repo.Save())

	assert.False(t, s.HasPending())
	for _, o := range append(added, renamed) {
		assert.NotZero(t, o.OutletID)
		assert.Equal(t, store.Unchanged, s.State(o))
	}
	assert.Equal(t, store.Detached, s.State(removed))

	var names []string
	require.NoError(t, db.Model(&domain.Outlet{}).Order("outlet_name").Pluck("outlet_name", &names).Error)
	assert.Equal(t, []string{"New name", "North", "South"}, names)
}

func TestRepository_FindAcceptsEveryKeyKind(t *testing.T) {
	db := storetest.NewDB(t)
	repo := NewOutletRepository(openSession(db))
	outlet := newOutlet("Main", "u1")
	require.NoError(t, repo.Add(outlet))

	keys := []store.Key{
		store.IntKey(outlet.OutletID),
		store.DecimalKey(decimal.NewFromInt(int64(outlet.OutletID))),
		store.FloatKey(float64(outlet.OutletID)),
	}
	for _, key := range keys {
		t.Run(key.Kind().String(), func(t *testing.T) {
			found, err := NewOutletRepository(openSession(db)).Find(key)
			require.NoError(t, err)
			require.NotNil(t, found)
			assert.Equal(t, outlet.OutletID, found.OutletID)
		})
	}

	subs := NewSubscribedServiceRepository(openSession(db))
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, subs.Add(&domain.SubscribedService{
		SubscribedServiceID: "7f0b3c2e-0000-4000-8000-000000000001",
		UserID:              "u1",
		SubscriptionID:      1,
		StartDate:           now,
		EndDate:             now.AddDate(0, 1, 0),
		Status:              domain.StatusActive,
	}))

	found, err := NewSubscribedServiceRepository(openSession(db)).Find(store.StringKey("7f0b3c2e-0000-4000-8000-000000000001"))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "u1", found.UserID)
}

func TestRepository_DeleteWhereRemovesEveryMatch(t *testing.T) {
	db := storetest.NewDB(t)
	repo := NewOutletRepository(openSession(db))
	require.NoError(t, repo.Add(newOutlet("A", "u1")))
	require.NoError(t, repo.Add(newOutlet("B", "u1")))
	require.NoError(t, repo.Add(newOutlet("C", "u2")))

	removed, err := repo.DeleteWhere(Where("user_id = ?", "u1"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	remaining, err := NewOutletRepository(openSession(db)).AsQueryable().Count()
	require.NoError(t, err)
	assert.Equal(t, int64(1), remaining)

	none, err := repo.DeleteWhere(Where("user_id = ?", "u1"))
	require.NoError(t, err)
	assert.Zero(t, none)
}

func TestRepository_AsQueryableIsUntracked(t *testing.T) {
	s := openSession(storetest.NewDB(t))
	repo := NewOutletRepository(s)
	require.NoError(t, repo.Add(newOutlet("Stored", "u1")))

	pending := newOutlet("Pending", "u1")
	require.NoError(t, s.Track(pending, store.Added))

	rows, err := repo.AsQueryable().Where("user_id = ?", "u1").Find()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Stored", rows[0].OutletName)
	assert.Equal(t, store.Detached, s.State(rows[0]))

	rows[0].OutletName = "Mutated"
	require.NoError(t, s.SaveChanges())

	reread, err := repo.AsQueryable().Where("outlet_name = ?", "Mutated").Any()
	require.NoError(t, err)
	assert.False(t, reread)
}

func TestQuery_BuildersDoNotLeakIntoEachOther(t *testing.T) {
	repo := NewOutletRepository(openSession(storetest.NewDB(t)))
	require.NoError(t, repo.Add(newOutlet("A", "u1")))
	require.NoError(t, repo.Add(newOutlet("B", "u2")))

	base := repo.AsQueryable().Where("status = ?", domain.StatusActive)
	u1, err := base.Where("user_id = ?", "u1").Count()
	require.NoError(t, err)
	all, err := base.Count()
	require.NoError(t, err)

	assert.Equal(t, int64(1), u1)
	assert.Equal(t, int64(2), all)

	first, err := base.Order("outlet_name desc").Limit(1).Find()
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "B", first[0].OutletName)

	none, err := base.Matching(Where("user_id = ?", "u3")).First()
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestRepository_GetAllTracksRows(t *testing.T) {
	s := openSession(storetest.NewDB(t))
	repo := NewOutletRepository(s)
	require.NoError(t, repo.Add(newOutlet("A", "u1")))
	require.NoError(t, repo.Add(newOutlet("B", "u1")))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, o := range all {
		assert.Equal(t, store.Unchanged, s.State(o))
	}
}

func TestRepository_GetMaxPK(t *testing.T) {
	repo := NewProductUnitTypeRepository(openSession(storetest.NewDB(t)))

	_, err := repo.GetMaxPK("UnitTypeIDs")
	assert.ErrorIs(t, err, store.ErrEmptySet)

	require.NoError(t, repo.Add(&domain.ProductUnitType{UnitTypeIDs: 4, UnitTypeNames: "kg", Status: domain.StatusActive}))
	require.NoError(t, repo.Add(&domain.ProductUnitType{UnitTypeIDs: 9, UnitTypeNames: "pcs", Status: domain.StatusActive}))

	maxID, err := repo.GetMaxPK("UnitTypeIDs")
	require.NoError(t, err)
	assert.Equal(t, 9, maxID)

	_, err = repo.GetMaxPK("NoSuchField")
	assert.ErrorIs(t, err, store.ErrUnknownField)
}

func TestRepository_SharedSessionDetachesAcrossRepositories(t *testing.T) {
	s := openSession(storetest.NewDB(t))
	outlets := NewOutletRepository(s)
	crashLogs := NewCrashLogRepository(s)

	pending := newOutlet("Pending", "u1")
	require.NoError(t, s.Track(pending, store.Added))

	crashLogs.Rollback()
	assert.Equal(t, store.Detached, s.State(pending))
	assert.Same(t, s, outlets.Session())
}
