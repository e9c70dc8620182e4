package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/avolkov/gameshelf/internal/backend"
	"github.com/avolkov/gameshelf/internal/client/models"
	"github.com/avolkov/gameshelf/internal/client/repositories/metadata"
	"github.com/avolkov/gameshelf/internal/client/state"
	"github.com/avolkov/gameshelf/internal/logging"
)

func sessionFixture(t *testing.T) (*fakeClient, *state.Store, metadata.Repository, SessionService) {
	t.Helper()
	db := setupDB(t)
	fc := newFakeClient()
	store := state.NewStore()
	log := logging.NewDiscardLogger()
	reconciler := NewReconciler(fc, store, log)
	catalog := NewCatalogService(fc, store, db, log)
	svc := NewSessionService(fc, store, db, reconciler, catalog, log)
	return fc, store, metadata.NewSQLiteRepository(db), svc
}

func TestBootWithoutPersistedSession(t *testing.T) {
	ctx := context.Background()
	fc, store, _, svc := sessionFixture(t)
	fc.games = []models.Game{{ID: "g1", Title: "Nebula"}}

	svc.Boot(ctx)
	t.Cleanup(func() { _ = svc.Close(ctx) })

	// No tokens means no restore attempt, and boot must not wait for the
	// catalog.
	require.Equal(t, 0, fc.count("RestoreSession"))
	require.False(t, store.Snapshot().Booting)

	require.Eventually(t, func() bool {
		return len(store.Snapshot().Catalog) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestBootRestoresPersistedSession(t *testing.T) {
	ctx := context.Background()
	fc, store, meta, svc := sessionFixture(t)

	require.NoError(t, meta.Set(ctx, "access_token", "old-access"))
	require.NoError(t, meta.Set(ctx, "refresh_token", "old-refresh"))

	fc.restoreSession = testSession("alice@example.com", "alice")
	fc.restoreSession.AccessToken = "new-access"
	fc.restoreSession.RefreshToken = "new-refresh"
	fc.profile = &models.Profile{ID: "user-1", Username: "Alice"}
	fc.library = []string{"g1"}

	svc.Boot(ctx)
	t.Cleanup(func() { _ = svc.Close(ctx) })

	require.Equal(t, 1, fc.count("RestoreSession"))
	require.False(t, store.Snapshot().Booting)

	// The rotated token pair replaced the persisted one.
	access, err := meta.Get(ctx, "access_token")
	require.NoError(t, err)
	require.Equal(t, "new-access", access)

	// Reconciliation is detached; its result lands in the store.
	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return snap.User != nil && snap.User.DisplayName == "Alice" && snap.Library["g1"]
	}, time.Second, 10*time.Millisecond)
}

func TestBootClearsStaleTokens(t *testing.T) {
	ctx := context.Background()
	fc, store, meta, svc := sessionFixture(t)

	require.NoError(t, meta.Set(ctx, "access_token", "stale"))
	require.NoError(t, meta.Set(ctx, "refresh_token", "stale"))
	fc.restoreErr = backend.ErrUnauthorized

	svc.Boot(ctx)
	t.Cleanup(func() { _ = svc.Close(ctx) })

	require.False(t, store.Snapshot().Booting)
	require.Nil(t, store.Snapshot().User)

	access, err := meta.Get(ctx, "access_token")
	require.NoError(t, err)
	require.Empty(t, access)
}

func TestSignInUnconfirmedAccountIsForcedOut(t *testing.T) {
	ctx := context.Background()
	fc, _, _, svc := sessionFixture(t)

	sess := testSession("new@example.com", "")
	sess.EmailConfirmed = false
	fc.signInSession = sess

	err := svc.SignIn(ctx, "new@example.com", "pw")
	require.ErrorIs(t, err, backend.ErrEmailNotConfirmed)
	require.Equal(t, 1, fc.count("SignOut"))
}

func TestSignUpReportsVerificationPending(t *testing.T) {
	ctx := context.Background()
	fc, _, _, svc := sessionFixture(t)

	fc.signUpResult = &backend.SignUpResult{UserID: "user-2"}
	pending, err := svc.SignUp(ctx, "new@example.com", "pw", "newbie")
	require.NoError(t, err)
	require.True(t, pending)

	sess := testSession("new@example.com", "newbie")
	sess.EmailConfirmed = true
	fc.signUpResult = &backend.SignUpResult{UserID: "user-2", Session: sess}
	pending, err = svc.SignUp(ctx, "new@example.com", "pw", "newbie")
	require.NoError(t, err)
	require.False(t, pending)
}

func TestSignOutClearsIdentityAndGuard(t *testing.T) {
	ctx := context.Background()
	fc, store, meta, svc := sessionFixture(t)
	fc.profile = &models.Profile{ID: "user-1", Username: "Alice"}
	fc.library = []string{"g1"}

	svc.Boot(ctx)
	t.Cleanup(func() { _ = svc.Close(ctx) })

	sess := testSession("alice@example.com", "alice")
	sess.EmailConfirmed = true
	fc.fireAuthEvent(backend.AuthSignedIn, sess)

	require.Eventually(t, func() bool {
		return store.Reconciled()
	}, time.Second, 10*time.Millisecond)

	access, err := meta.Get(ctx, "access_token")
	require.NoError(t, err)
	require.Equal(t, "access", access)

	require.NoError(t, svc.SignOut(ctx))

	snap := store.Snapshot()
	require.Nil(t, snap.User)
	require.Empty(t, snap.Library)
	require.False(t, store.Reconciled())

	access, err = meta.Get(ctx, "access_token")
	require.NoError(t, err)
	require.Empty(t, access)

	// A fresh sign-in reconciles again from scratch.
	fc.fireAuthEvent(backend.AuthSignedIn, sess)
	require.Eventually(t, func() bool {
		snap := store.Snapshot()
		return snap.User != nil && snap.User.DisplayName == "Alice"
	}, time.Second, 10*time.Millisecond)
}
