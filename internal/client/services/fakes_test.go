package services

import (
	"context"
	"database/sql"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/avolkov/gameshelf/internal/backend"
	"github.com/avolkov/gameshelf/internal/client/models"

	_ "modernc.org/sqlite"
)

// ---- helpers ----

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:" + strings.ReplaceAll(uuid.NewString(), "-", "") + "?mode=memory&cache=shared"
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE metadata (
  key   TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
CREATE TABLE games_cache (
  id           TEXT PRIMARY KEY,
  title        TEXT NOT NULL,
  description  TEXT NOT NULL DEFAULT '',
  genre        TEXT NOT NULL DEFAULT '',
  platform     TEXT NOT NULL DEFAULT '',
  image_url    TEXT NOT NULL DEFAULT '',
  download_url TEXT NOT NULL DEFAULT '',
  downloads    INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE downloads (
  id         TEXT PRIMARY KEY,
  game_id    TEXT NOT NULL,
  started_at TIMESTAMP NOT NULL
);
`)
	require.NoError(t, err)
	return db
}

// ---- fake backend client ----

// fakeClient implements backend.Client for unit tests. Behavior is driven by
// the result fields; every call is counted so tests can assert how often the
// network was hit.
type fakeClient struct {
	mu    sync.Mutex
	calls map[string]int

	// GetProfile blocks until this channel closes, when set.
	profileGate chan struct{}

	profile    *models.Profile
	profileErr error

	library    []string
	libraryErr error

	games    []models.Game
	gamesErr error

	insertProfileErr error
	insertedProfile  *models.Profile

	insertLibraryErr error
	incrementErr     error

	pendingReports    int
	pendingReportsErr error
	reports           []models.Report

	signInSession *backend.Session
	signInErr     error

	signUpResult *backend.SignUpResult
	signUpErr    error

	restoreSession *backend.Session
	restoreErr     error

	authFn func(backend.AuthEvent, *backend.Session)
}

func newFakeClient() *fakeClient {
	return &fakeClient{calls: make(map[string]int)}
}

func (f *fakeClient) called(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeClient) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// fireAuthEvent invokes the registered auth listener, mimicking the real
// client's event emission.
func (f *fakeClient) fireAuthEvent(ev backend.AuthEvent, sess *backend.Session) {
	f.mu.Lock()
	fn := f.authFn
	f.mu.Unlock()
	if fn != nil {
		fn(ev, sess)
	}
}

func (f *fakeClient) Close() error {
	f.called("Close")
	return nil
}

func (f *fakeClient) SignInWithPassword(ctx context.Context, email, password string) (*backend.Session, error) {
	f.called("SignInWithPassword")
	return f.signInSession, f.signInErr
}

func (f *fakeClient) SignUp(ctx context.Context, email, password, username string) (*backend.SignUpResult, error) {
	f.called("SignUp")
	return f.signUpResult, f.signUpErr
}

func (f *fakeClient) SignOut(ctx context.Context) error {
	f.called("SignOut")
	f.fireAuthEvent(backend.AuthSignedOut, nil)
	return nil
}

func (f *fakeClient) RestoreSession(ctx context.Context, accessToken, refreshToken string) (*backend.Session, error) {
	f.called("RestoreSession")
	return f.restoreSession, f.restoreErr
}

func (f *fakeClient) OnAuthStateChange(fn func(backend.AuthEvent, *backend.Session)) func() {
	f.mu.Lock()
	f.authFn = fn
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.authFn = nil
		f.mu.Unlock()
	}
}

func (f *fakeClient) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	f.called("GetProfile")
	if f.profileGate != nil {
		<-f.profileGate
	}
	return f.profile, f.profileErr
}

func (f *fakeClient) InsertProfile(ctx context.Context, profile *models.Profile) error {
	f.called("InsertProfile")
	f.mu.Lock()
	f.insertedProfile = profile
	f.mu.Unlock()
	return f.insertProfileErr
}

func (f *fakeClient) ListLibrary(ctx context.Context, userID string) ([]string, error) {
	f.called("ListLibrary")
	return f.library, f.libraryErr
}

func (f *fakeClient) InsertLibraryEntry(ctx context.Context, userID, gameID string) error {
	f.called("InsertLibraryEntry")
	return f.insertLibraryErr
}

func (f *fakeClient) ListGames(ctx context.Context) ([]models.Game, error) {
	f.called("ListGames")
	return f.games, f.gamesErr
}

func (f *fakeClient) InsertGame(ctx context.Context, game *models.Game) error {
	f.called("InsertGame")
	return nil
}

func (f *fakeClient) UpdateGame(ctx context.Context, game *models.Game) error {
	f.called("UpdateGame")
	return nil
}

func (f *fakeClient) DeleteGame(ctx context.Context, id string) error {
	f.called("DeleteGame")
	return nil
}

func (f *fakeClient) IncrementDownloads(ctx context.Context, gameID string) error {
	f.called("IncrementDownloads")
	return f.incrementErr
}

func (f *fakeClient) CountPendingReports(ctx context.Context) (int, error) {
	f.called("CountPendingReports")
	return f.pendingReports, f.pendingReportsErr
}

func (f *fakeClient) ListReports(ctx context.Context) ([]models.Report, error) {
	f.called("ListReports")
	return f.reports, nil
}

func (f *fakeClient) ResolveReport(ctx context.Context, id string) error {
	f.called("ResolveReport")
	return nil
}
