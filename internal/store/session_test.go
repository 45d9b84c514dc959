package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/domain"
	"storefront/internal/storetest"
)

func newSession(t *testing.T) *Session {
	t.Helper()
	return Open(context.Background(), storetest.NewDB(t), nil)
}

func countRows(t *testing.T, s *Session, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB().Model(model).Count(&n).Error)
	return n
}

func TestSession_TrackRejectsNonPointers(t *testing.T) {
	s := newSession(t)

	assert.ErrorIs(t, s.Track(domain.Outlet{}, Added), ErrNotPointer)
	assert.ErrorIs(t, s.Track(nil, Added), ErrNotPointer)

	var missing *domain.Outlet
	assert.ErrorIs(t, s.Track(missing, Added), ErrNotPointer)
}

func TestSession_StateTransitions(t *testing.T) {
	s := newSession(t)
	outlet := &domain.Outlet{OutletName: "Main", UserID: "u1", Status: domain.StatusActive}

	assert.Equal(t, Detached, s.State(outlet))

	require.NoError(t, s.Track(outlet, Added))
	assert.Equal(t, Added, s.State(outlet))

	require.NoError(t, s.Track(outlet, Modified))
	assert.Equal(t, Added, s.State(outlet), "modifying an added entity keeps it added")

	require.NoError(t, s.Track(outlet, Deleted))
	assert.Equal(t, Detached, s.State(outlet), "deleting an added entity drops it")
	assert.Empty(t, s.Entries())
}

func TestSession_SaveChangesMovesEntriesToUnchanged(t *testing.T) {
	s := newSession(t)
	outlet := &domain.Outlet{OutletName: "Main", UserID: "u1", Status: domain.StatusActive}

	require.NoError(t, s.Track(outlet, Added))
	require.NoError(t, s.SaveChanges())

	assert.NotZero(t, outlet.OutletID)
	assert.Equal(t, Unchanged, s.State(outlet))
	assert.False(t, s.HasPending())
	assert.Equal(t, int64(1), countRows(t, s, &domain.Outlet{}))

	require.NoError(t, s.Track(outlet, Deleted))
	require.NoError(t, s.SaveChanges())
	assert.Equal(t, Detached, s.State(outlet))
	assert.Equal(t, int64(0), countRows(t, s, &domain.Outlet{}))
}

func TestSession_FailedFlushKeepsEntriesPending(t *testing.T) {
	s := newSession(t)
	require.NoError(t, s.Track(&domain.ProductUnitType{UnitTypeIDs: 1, UnitTypeNames: "kg", Status: domain.StatusActive}, Added))
	require.NoError(t, s.SaveChanges())

	duplicate := &domain.ProductUnitType{UnitTypeIDs: 1, UnitTypeNames: "pcs", Status: domain.StatusActive}
	require.NoError(t, s.Track(duplicate, Added))

	err := s.SaveChanges()
	require.Error(t, err)
	assert.True(t, IsDuplicateKey(err))

	var flushErr *FlushError
	require.True(t, errors.As(err, &flushErr))
	assert.Equal(t, "product_unit_types", flushErr.Table)
	assert.Equal(t, Added, flushErr.State)
	assert.Equal(t, "1", flushErr.Key)
	assert.NotNil(t, errors.Unwrap(err))

	assert.Equal(t, Added, s.State(duplicate))
	assert.True(t, s.HasPending())
}

func TestSession_DetachAllKeepsUnchanged(t *testing.T) {
	s := newSession(t)
	saved := &domain.Outlet{OutletName: "Saved", UserID: "u1", Status: domain.StatusActive}
	require.NoError(t, s.Track(saved, Added))
	require.NoError(t, s.SaveChanges())

	pending := &domain.Outlet{OutletName: "Pending", UserID: "u1", Status: domain.StatusActive}
	require.NoError(t, s.Track(pending, Added))
	require.NoError(t, s.Track(saved, Modified))

	assert.Equal(t, 2, s.DetachAll())
	assert.Equal(t, Detached, s.State(pending))
	assert.Equal(t, Detached, s.State(saved))

	require.NoError(t, s.SaveChanges())
	assert.Equal(t, int64(1), countRows(t, s, &domain.Outlet{}), "detached entries are never written")
}

func TestSession_UpdateOfMissingRowFails(t *testing.T) {
	s := newSession(t)
	ghost := &domain.Outlet{OutletID: 42, OutletName: "Ghost", UserID: "u1", Status: domain.StatusActive}

	require.NoError(t, s.Track(ghost, Modified))
	err := s.SaveChanges()

	assert.ErrorIs(t, err, ErrNoRowsAffected)
	assert.Equal(t, Modified, s.State(ghost))
}

func TestSession_LookupServesUnchangedInstances(t *testing.T) {
	s := newSession(t)
	outlet := &domain.Outlet{OutletName: "Main", UserID: "u1", Status: domain.StatusActive}
	require.NoError(t, s.Track(outlet, Added))
	require.NoError(t, s.SaveChanges())

	found, ok := s.Lookup(&domain.Outlet{}, IntKey(outlet.OutletID))
	require.True(t, ok)
	assert.Same(t, outlet, found)

	_, ok = s.Lookup(&domain.Category{}, IntKey(outlet.OutletID))
	assert.False(t, ok, "lookup is scoped to the entity type")

	_, ok = s.Lookup(&domain.Outlet{}, FloatKey(math.NaN()))
	assert.False(t, ok)
	_, ok = s.Lookup(&domain.Outlet{}, FloatKey(math.Inf(1)))
	assert.False(t, ok)
}

func TestSession_FlushEvictsStaleInstancesWithSameKey(t *testing.T) {
	s := newSession(t)
	stale := &domain.Outlet{OutletName: "Old", UserID: "u1", Status: domain.StatusActive}
	require.NoError(t, s.Track(stale, Added))
	require.NoError(t, s.SaveChanges())

	fresh := &domain.Outlet{OutletID: stale.OutletID, OutletName: "New", UserID: "u1", Status: domain.StatusActive}
	require.NoError(t, s.Track(fresh, Modified))
	require.NoError(t, s.SaveChanges())

	found, ok := s.Lookup(&domain.Outlet{}, IntKey(stale.OutletID))
	require.True(t, ok)
	assert.Same(t, fresh, found)
	assert.Equal(t, Detached, s.State(stale))
}

func TestSession_PrimaryKey(t *testing.T) {
	s := newSession(t)

	_, ok, err := s.PrimaryKey(&domain.Outlet{})
	require.NoError(t, err)
	assert.False(t, ok, "zero keys are not identities")

	key, ok, err := s.PrimaryKey(&domain.SubscribedService{SubscribedServiceID: "abc"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KeyString, key.Kind())
}

func TestIsDuplicateKey(t *testing.T) {
	assert.False(t, IsDuplicateKey(nil))
	assert.False(t, IsDuplicateKey(errors.New("boom")))
	assert.True(t, IsDuplicateKey(fmt.Errorf("wrapped: %w", ErrDuplicateKey)))
}
