package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/gameshelf/internal/client/models"
	"github.com/avolkov/gameshelf/internal/client/state"
	"github.com/avolkov/gameshelf/internal/logging"
)

func adminFixture(t *testing.T) (*fakeClient, *state.Store, AdminService) {
	t.Helper()
	db := setupDB(t)
	fc := newFakeClient()
	store := state.NewStore()
	svc := NewAdminService(fc, store, db, logging.NewDiscardLogger())
	return fc, store, svc
}

func TestAdminOpsRequireAdmin(t *testing.T) {
	ctx := context.Background()
	_, store, svc := adminFixture(t)

	err := svc.AddGame(ctx, &models.Game{Title: "Nebula"})
	require.ErrorIs(t, err, ErrSignInRequired)

	store.SetUser(state.UserView{ID: "user-1", DisplayName: "alice"})
	err = svc.AddGame(ctx, &models.Game{Title: "Nebula"})
	require.ErrorIs(t, err, ErrAdminOnly)

	_, err = svc.PendingReports(ctx)
	require.ErrorIs(t, err, ErrAdminOnly)
}

func TestAddGameAssignsIDAndUpdatesLocalState(t *testing.T) {
	ctx := context.Background()
	fc, store, svc := adminFixture(t)
	store.SetUser(state.UserView{ID: "user-1", DisplayName: "mod", IsAdmin: true})

	game := &models.Game{Title: "Nebula", Genre: "Arcade"}
	require.NoError(t, svc.AddGame(ctx, game))
	require.NotEmpty(t, game.ID)
	require.Equal(t, 1, fc.count("InsertGame"))

	snap := store.Snapshot()
	require.Len(t, snap.Catalog, 1)
	require.Equal(t, game.ID, snap.Catalog[0].ID)
}

func TestEditAndRemoveGame(t *testing.T) {
	ctx := context.Background()
	fc, store, svc := adminFixture(t)
	store.SetUser(state.UserView{ID: "user-1", DisplayName: "mod", IsAdmin: true})
	store.SetCatalog([]models.Game{{ID: "g1", Title: "Nebula"}})

	require.NoError(t, svc.EditGame(ctx, &models.Game{ID: "g1", Title: "Nebula DX"}))
	require.Equal(t, 1, fc.count("UpdateGame"))
	require.Equal(t, "Nebula DX", store.Snapshot().Catalog[0].Title)

	require.NoError(t, svc.RemoveGame(ctx, "g1"))
	require.Equal(t, 1, fc.count("DeleteGame"))
	require.Empty(t, store.Snapshot().Catalog)
}

func TestResolveDecrementsPendingCounter(t *testing.T) {
	ctx := context.Background()
	fc, store, svc := adminFixture(t)
	store.SetUser(state.UserView{ID: "user-1", DisplayName: "mod", IsAdmin: true, PendingReports: 2})

	require.NoError(t, svc.Resolve(ctx, "r1"))
	require.Equal(t, 1, fc.count("ResolveReport"))
	require.Equal(t, 1, store.Snapshot().User.PendingReports)

	require.NoError(t, svc.Resolve(ctx, "r2"))
	require.Equal(t, 0, store.Snapshot().User.PendingReports)

	// Never goes negative, even if the counter was already stale.
	require.NoError(t, svc.Resolve(ctx, "r3"))
	require.Equal(t, 0, store.Snapshot().User.PendingReports)
}
