package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/gameshelf/internal/client/models"
	"github.com/avolkov/gameshelf/internal/client/state"
	"github.com/avolkov/gameshelf/internal/logging"
)

func libraryFixture(t *testing.T) (*fakeClient, *state.Store, LibraryService) {
	t.Helper()
	db := setupDB(t)
	fc := newFakeClient()
	store := state.NewStore()
	store.SetCatalog([]models.Game{
		{ID: "g1", Title: "Nebula", Downloads: 10, DownloadURL: "https://cdn.example.com/g1"},
	})
	svc := NewLibraryService(fc, store, db, logging.NewDiscardLogger())
	return fc, store, svc
}

func TestDownloadRequiresSignIn(t *testing.T) {
	fc, _, svc := libraryFixture(t)

	_, err := svc.Download(context.Background(), "g1")
	require.ErrorIs(t, err, ErrSignInRequired)
	require.Equal(t, 0, fc.count("InsertLibraryEntry"))
	require.Equal(t, 0, fc.count("IncrementDownloads"))
}

func TestDownloadUnknownGame(t *testing.T) {
	_, store, svc := libraryFixture(t)
	store.SetUser(state.UserView{ID: "user-1", DisplayName: "alice"})

	_, err := svc.Download(context.Background(), "nope")
	require.ErrorIs(t, err, ErrUnknownGame)
}

func TestDownloadFirstTimeAddsMembership(t *testing.T) {
	fc, store, svc := libraryFixture(t)
	store.SetUser(state.UserView{ID: "user-1", DisplayName: "alice"})

	game, err := svc.Download(context.Background(), "g1")
	require.NoError(t, err)
	require.Equal(t, int64(11), game.Downloads)

	require.Equal(t, 1, fc.count("InsertLibraryEntry"))
	require.Equal(t, 1, fc.count("IncrementDownloads"))

	snap := store.Snapshot()
	require.True(t, snap.Library["g1"])
	require.Equal(t, int64(11), snap.Catalog[0].Downloads)

	history, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, "g1", history[0].GameID)
}

func TestDownloadRepeatSkipsMembershipInsert(t *testing.T) {
	fc, store, svc := libraryFixture(t)
	store.SetUser(state.UserView{ID: "user-1", DisplayName: "alice"})
	store.SetLibrary([]string{"g1"})

	game, err := svc.Download(context.Background(), "g1")
	require.NoError(t, err)
	require.Equal(t, int64(11), game.Downloads)

	// Already archived: no second membership row, but the counter still
	// counts the download.
	require.Equal(t, 0, fc.count("InsertLibraryEntry"))
	require.Equal(t, 1, fc.count("IncrementDownloads"))
}

func TestDownloadMembershipInsertFailureStopsFlow(t *testing.T) {
	fc, store, svc := libraryFixture(t)
	store.SetUser(state.UserView{ID: "user-1", DisplayName: "alice"})
	fc.insertLibraryErr = errors.New("row level security")

	_, err := svc.Download(context.Background(), "g1")
	require.Error(t, err)

	snap := store.Snapshot()
	require.False(t, snap.Library["g1"])
	require.Equal(t, int64(10), snap.Catalog[0].Downloads)
	require.Equal(t, 0, fc.count("IncrementDownloads"))
}

func TestDownloadCounterFailureIsNonFatal(t *testing.T) {
	fc, store, svc := libraryFixture(t)
	store.SetUser(state.UserView{ID: "user-1", DisplayName: "alice"})
	fc.incrementErr = errors.New("rpc missing")

	game, err := svc.Download(context.Background(), "g1")
	require.NoError(t, err)

	// The local counter still moves so the UI stays consistent with the
	// user's action.
	require.Equal(t, int64(11), game.Downloads)
	require.Equal(t, int64(11), store.Snapshot().Catalog[0].Downloads)
}
