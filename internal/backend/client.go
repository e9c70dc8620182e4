// Package backend is the client for the hosted auth/data service the
// storefront runs against. The service owns authentication and the record
// collections (profiles, user_library, games, reports); row-level security on
// the service side decides what each token may read or write. This package
// only speaks the request/response contract and maps failures onto a small
// sentinel taxonomy so callers can branch with errors.Is.
package backend

import (
	"context"

	"github.com/avolkov/gameshelf/internal/client/models"
)

// AuthEvent identifies a transition in the auth session lifecycle as
// observed by this process.
type AuthEvent string

const (
	AuthSignedIn  AuthEvent = "SIGNED_IN"
	AuthSignedOut AuthEvent = "SIGNED_OUT"
)

// SignUpResult is the outcome of a sign-up call. A nil Session means the
// service requires email verification before the account can be used; the
// caller must route to a pending-verification state instead of treating the
// sign-up as a completed login.
type SignUpResult struct {
	UserID  string
	Session *Session
}

// Client defines every operation the storefront needs from the hosted
// service. All methods honor context cancellation. Exactly one concrete
// implementation exists (HTTPClient); tests substitute fakes.
type Client interface {
	Close() error

	// Auth lifecycle.
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password, username string) (*SignUpResult, error)
	SignOut(ctx context.Context) error
	// RestoreSession re-establishes a persisted session from a stored token
	// pair, refreshing it when the access token has expired.
	RestoreSession(ctx context.Context, accessToken, refreshToken string) (*Session, error)
	// OnAuthStateChange registers a listener for session transitions and
	// returns a function that releases the subscription.
	OnAuthStateChange(fn func(event AuthEvent, session *Session)) (unsubscribe func())

	// Profile rows, keyed by user id. GetProfile returns ErrNotFound when no
	// row exists, which callers treat as a repairable inconsistency rather
	// than a failure.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	InsertProfile(ctx context.Context, profile *models.Profile) error

	// Library membership rows, (user_id, game_id) pairs.
	ListLibrary(ctx context.Context, userID string) ([]string, error)
	InsertLibraryEntry(ctx context.Context, userID, gameID string) error

	// Catalog rows. ListGames returns the full catalog ordered by
	// descending download counter.
	ListGames(ctx context.Context) ([]models.Game, error)
	InsertGame(ctx context.Context, game *models.Game) error
	UpdateGame(ctx context.Context, game *models.Game) error
	DeleteGame(ctx context.Context, id string) error
	IncrementDownloads(ctx context.Context, gameID string) error

	// Moderation queue.
	CountPendingReports(ctx context.Context) (int, error)
	ListReports(ctx context.Context) ([]models.Report, error)
	ResolveReport(ctx context.Context, id string) error
}
