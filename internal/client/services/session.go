package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/avolkov/gameshelf/internal/backend"
	"github.com/avolkov/gameshelf/internal/client/repositories/metadata"
	"github.com/avolkov/gameshelf/internal/client/state"
	"github.com/avolkov/gameshelf/internal/dbx"
	"github.com/avolkov/gameshelf/internal/logging"
)

// Metadata keys for the persisted session token pair.
const (
	metaKeyAccessToken  = "access_token"
	metaKeyRefreshToken = "refresh_token"
)

// SessionService owns the session lifecycle: boot-time restore, sign-in,
// sign-up, sign-out, and the long-lived auth-event subscription.
//
// Contract:
//   - Boot: run exactly once per application lifetime; never call it twice.
//   - SignIn: authenticate; unconfirmed accounts are forced back out.
//   - SignUp: register; reports whether email verification is pending.
//   - SignOut: revoke the session and clear all local identity state.
//   - Close: release the auth subscription and the backend client.
type SessionService interface {
	Boot(ctx context.Context)
	SignIn(ctx context.Context, email, password string) error
	SignUp(ctx context.Context, email, password, username string) (verificationPending bool, err error)
	SignOut(ctx context.Context) error
	Close(ctx context.Context) error
}

type sessionService struct {
	client     backend.Client
	store      *state.Store
	db         *sql.DB
	reconciler *Reconciler
	catalog    CatalogService
	log        logging.Logger

	unsubscribe func()
}

func NewSessionService(client backend.Client, store *state.Store, db *sql.DB, reconciler *Reconciler, catalog CatalogService, log logging.Logger) SessionService {
	return &sessionService{
		client:     client,
		store:      store,
		db:         db,
		reconciler: reconciler,
		catalog:    catalog,
		log:        log,
	}
}

func (s *sessionService) metaRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(s.db)
}

// Boot recovers any persisted session and unblocks the UI. The session check
// is awaited (success or failure) but reconciliation and the catalog fetch
// are detached: the boot flag clears as soon as the session question is
// answered, and each detached task reports through the store. Boot also
// registers the auth-event subscription that re-runs reconciliation on
// sign-in and clears identity state on sign-out.
func (s *sessionService) Boot(ctx context.Context) {
	s.unsubscribe = s.client.OnAuthStateChange(s.handleAuthEvent)

	sess, err := s.restoreSession(ctx)
	if err != nil {
		s.log.Warn(ctx, "session restore failed", "error", err)
	}
	if sess != nil {
		go s.reconciler.Reconcile(context.WithoutCancel(ctx), sess)
	}

	s.store.SetBooting(false)

	go func() {
		if err := s.catalog.Fetch(context.WithoutCancel(ctx)); err != nil {
			s.log.Warn(ctx, "initial catalog fetch failed", "error", err)
		}
	}()
}

// restoreSession loads the persisted token pair and re-establishes the
// session. Stale tokens (rejected by the service) are cleared so the next
// boot does not retry them; network failures leave them in place.
func (s *sessionService) restoreSession(ctx context.Context) (*backend.Session, error) {
	repo := s.metaRepo()

	access, err := repo.Get(ctx, metaKeyAccessToken)
	if err != nil {
		return nil, err
	}
	if access == "" {
		return nil, nil
	}
	refresh, err := repo.Get(ctx, metaKeyRefreshToken)
	if err != nil {
		return nil, err
	}

	sess, err := s.client.RestoreSession(ctx, access, refresh)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			if clearErr := repo.Clear(ctx); clearErr != nil {
				s.log.Warn(ctx, "failed to clear stale session", "error", clearErr)
			}
		}
		return nil, err
	}

	// Token rotation: the refresh grant may have issued a new pair.
	if err := s.persistSession(ctx, sess); err != nil {
		s.log.Warn(ctx, "failed to persist restored session", "error", err)
	}
	return sess, nil
}

// persistSession stores the token pair in one transaction so a crash never
// leaves half a session behind.
func (s *sessionService) persistSession(ctx context.Context, sess *backend.Session) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, metaKeyAccessToken, sess.AccessToken); err != nil {
			return err
		}
		return repo.Set(ctx, metaKeyRefreshToken, sess.RefreshToken)
	})
}

// handleAuthEvent reacts to session transitions for the rest of this
// process's lifetime. Sign-in persists the session and kicks a detached
// reconciliation (the guard makes duplicates harmless); sign-out clears
// every trace of the identity, including the reconciliation guard.
func (s *sessionService) handleAuthEvent(ev backend.AuthEvent, sess *backend.Session) {
	ctx := context.Background()

	switch ev {
	case backend.AuthSignedIn:
		if sess == nil {
			return
		}
		if err := s.persistSession(ctx, sess); err != nil {
			s.log.Warn(ctx, "failed to persist session", "error", err)
		}
		go s.reconciler.Reconcile(ctx, sess)

	case backend.AuthSignedOut:
		s.store.ClearIdentity()
		if err := s.metaRepo().Clear(ctx); err != nil {
			s.log.Warn(ctx, "failed to clear persisted session", "error", err)
		}
	}
}

// SignIn authenticates with email and password. An account that has not
// confirmed its email is signed straight back out and reported as
// ErrEmailNotConfirmed, so the caller can tell the user to verify first
// instead of landing in a half-authenticated state.
func (s *sessionService) SignIn(ctx context.Context, email, password string) error {
	sess, err := s.client.SignInWithPassword(ctx, email, password)
	if err != nil {
		return err
	}
	if !sess.EmailConfirmed {
		if err := s.client.SignOut(ctx); err != nil {
			s.log.Warn(ctx, "sign-out of unconfirmed session failed", "error", err)
		}
		return backend.ErrEmailNotConfirmed
	}
	return nil
}

// SignUp registers a new account. When the service requires email
// verification it returns (true, nil) and no session exists; otherwise the
// account is live and the sign-in event has already fired.
func (s *sessionService) SignUp(ctx context.Context, email, password, username string) (bool, error) {
	res, err := s.client.SignUp(ctx, email, password, username)
	if err != nil {
		return false, fmt.Errorf("sign-up failed: %w", err)
	}
	return res.Session == nil, nil
}

// SignOut revokes the session. Local identity state is cleared by the
// auth-event handler, which fires even when the revocation call fails.
func (s *sessionService) SignOut(ctx context.Context) error {
	return s.client.SignOut(ctx)
}

// Close releases the auth subscription and the underlying client.
func (s *sessionService) Close(ctx context.Context) error {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	return s.client.Close()
}
