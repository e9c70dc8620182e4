// Package services contains the storefront's application services: session
// bootstrapping, identity reconciliation, catalog fetching, the download
// flow, and admin operations. Services are the single writer of the shared
// state store; the REPL only reads snapshots.
package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/avolkov/gameshelf/internal/backend"
	"github.com/avolkov/gameshelf/internal/client/models"
	"github.com/avolkov/gameshelf/internal/client/state"
	"github.com/avolkov/gameshelf/internal/logging"
)

// Reconciler merges the three facets of an identity into one user view:
// session metadata (available immediately), the stored profile row, and
// library membership. It self-heals a missing profile row and runs at most
// once per sign-in lifetime.
type Reconciler struct {
	client backend.Client
	store  *state.Store
	log    logging.Logger
}

func NewReconciler(client backend.Client, store *state.Store, log logging.Logger) *Reconciler {
	return &Reconciler{client: client, store: store, log: log}
}

// optimisticView derives a user view from session metadata alone: display
// name from the metadata username, else the local part of the email, else a
// placeholder. The admin flag from an email substring is a deliberately weak
// provisional signal, good enough to unlock admin affordances until the
// profile row answers authoritatively.
func optimisticView(sess *backend.Session) state.UserView {
	name := sess.Username
	if name == "" {
		if at := strings.Index(sess.Email, "@"); at > 0 {
			name = sess.Email[:at]
		}
	}
	if name == "" {
		name = "player"
	}
	return state.UserView{
		ID:          sess.UserID,
		DisplayName: name,
		Email:       sess.Email,
		IsAdmin:     strings.Contains(strings.ToLower(sess.Email), "admin"),
	}
}

// Reconcile runs the full merge for sess. Callers do not await it; every
// effect lands in the store. A call that loses the single-flight guard is a
// silent no-op. On a generic profile-fetch failure the store keeps the
// optimistic view and the guard stays open, so a later auth event may try
// again.
func (r *Reconciler) Reconcile(ctx context.Context, sess *backend.Session) {
	gen, ok := r.store.BeginReconcile()
	if !ok {
		return
	}
	completed := false
	defer func() { r.store.EndReconcile(gen, completed) }()

	// Step 1: optimistic view, zero network cost. Every commit below is
	// bound to gen; a sign-out during the fetches orphans them all.
	view := optimisticView(sess)
	r.store.CommitUser(gen, view)

	// Step 2: profile and library, concurrently in flight; the merge waits
	// for both.
	var (
		wg         sync.WaitGroup
		profile    *models.Profile
		profileErr error
		libIDs     []string
		libErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		profile, profileErr = r.client.GetProfile(ctx, sess.UserID)
	}()
	go func() {
		defer wg.Done()
		libIDs, libErr = r.client.ListLibrary(ctx, sess.UserID)
	}()
	wg.Wait()

	// Step 3: profile merge. The row wins only for fields it defines.
	switch {
	case profileErr == nil:
		if profile.Username != "" {
			view.DisplayName = profile.Username
		}
		if profile.IsAdmin != nil {
			view.IsAdmin = *profile.IsAdmin
		}

	case errors.Is(profileErr, backend.ErrNotFound):
		// The identity exists but has no profile row. Repair it with the
		// same metadata-derived values the view already shows; a failed
		// insert is logged and swallowed since the view stays usable either
		// way.
		isAdmin := view.IsAdmin
		p := &models.Profile{
			ID:       sess.UserID,
			Username: view.DisplayName,
			Email:    sess.Email,
			IsAdmin:  &isAdmin,
		}
		if err := r.client.InsertProfile(ctx, p); err != nil {
			r.log.Warn(ctx, "profile self-heal insert failed", "user", sess.UserID, "error", err)
		} else {
			r.log.Info(ctx, "created missing profile row", "user", sess.UserID)
		}

	default:
		r.log.Warn(ctx, "reconciliation aborted", "user", sess.UserID, "error", profileErr)
		return
	}

	if view.IsAdmin {
		if n, err := r.client.CountPendingReports(ctx); err != nil {
			r.log.Warn(ctx, "pending report count failed", "error", err)
		} else {
			view.PendingReports = n
		}
	}
	r.store.CommitUser(gen, view)

	// Step 4: library merge, independent of the profile outcome. A failed
	// library fetch does not reopen the guard: the merged user view already
	// landed and re-running the whole merge for membership alone is not
	// worth a second profile round-trip.
	if libErr != nil {
		r.log.Warn(ctx, "library fetch failed", "user", sess.UserID, "error", libErr)
	} else {
		r.store.CommitLibrary(gen, libIDs)
	}

	completed = true
}
