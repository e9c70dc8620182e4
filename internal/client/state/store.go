// Package state holds the storefront's shared view model: the merged user
// projection, library membership, the catalog list, and the reconciliation
// guard. All of it lives in one owned Store with a single writer role (the
// services) and any number of readers (the REPL), instead of ambient
// globals.
package state

import (
	"sync"

	"github.com/avolkov/gameshelf/internal/client/models"
)

// UserView is the client-local projection of the signed-in identity. It is
// populated optimistically from session metadata first and overwritten
// field-by-field as authoritative profile data arrives.
type UserView struct {
	ID             string
	DisplayName    string
	Email          string
	IsAdmin        bool
	PendingReports int
}

// Snapshot is a point-in-time copy of the store. Readers get their own
// copies of every mutable field; mutating a snapshot never touches the
// store.
type Snapshot struct {
	Booting    bool
	User       *UserView
	Library    map[string]bool
	Catalog    []models.Game
	CatalogErr string
}

// Store is the single mutable view-model container. The mutex covers every
// field; the reconciliation guard doubles as the single-flight primitive for
// the reconciler.
type Store struct {
	mu sync.Mutex

	booting    bool
	user       *UserView
	library    map[string]bool
	catalog    []models.Game
	catalogErr string

	// reconciling marks an in-flight reconciliation, reconciled a completed
	// one. Together they give at-most-one attempt per sign-in lifetime;
	// reconciled resets only on sign-out. generation counts identity
	// lifetimes: sign-out bumps it, and reconciler commits bound to an
	// earlier generation are dropped rather than resurrecting the identity
	// they were fetched for.
	reconciling bool
	reconciled  bool
	generation  int

	closed bool
	subs   map[int]chan struct{}
	nextID int
}

// NewStore returns a store in the booting state with an empty library.
func NewStore() *Store {
	return &Store{
		booting: true,
		library: make(map[string]bool),
		subs:    make(map[int]chan struct{}),
	}
}

// Subscribe returns a channel that receives a signal after every commit,
// plus a release function. The channel is buffered; a slow reader coalesces
// notifications instead of blocking writers.
func (s *Store) Subscribe() (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan struct{}, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Close marks the store dead. Commits arriving afterwards (late results from
// in-flight fetches) are dropped rather than applied.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Store) notifyLocked() {
	for _, ch := range s.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Snapshot returns a copy of the current view model.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Booting:    s.booting,
		CatalogErr: s.catalogErr,
		Library:    make(map[string]bool, len(s.library)),
		Catalog:    make([]models.Game, len(s.catalog)),
	}
	for id := range s.library {
		snap.Library[id] = true
	}
	copy(snap.Catalog, s.catalog)
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// SetBooting flips the boot flag. Clearing it is the single signal that
// first paint may proceed.
func (s *Store) SetBooting(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.booting = v
	s.notifyLocked()
}

// SetUser replaces the user projection.
func (s *Store) SetUser(u UserView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.user = &u
	s.notifyLocked()
}

// SetPendingReports updates the moderation counter on the current user, if
// there is one.
func (s *Store) SetPendingReports(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.user == nil {
		return
	}
	u := *s.user
	u.PendingReports = n
	s.user = &u
	s.notifyLocked()
}

// ClearIdentity wipes everything tied to the signed-in identity: the user
// projection, library membership, and the reconciliation guard. Bumping the
// generation orphans any reconciliation still in flight, so its late commits
// cannot resurrect the identity. This is the sign-out path; catalog state is
// deliberately untouched.
func (s *Store) ClearIdentity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.user = nil
	s.library = make(map[string]bool)
	s.reconciling = false
	s.reconciled = false
	s.generation++
	s.notifyLocked()
}

// SetLibrary replaces library membership wholesale.
func (s *Store) SetLibrary(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.library = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.library[id] = true
	}
	s.notifyLocked()
}

// AddToLibrary adds one id to the membership set.
func (s *Store) AddToLibrary(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.library[id] = true
	s.notifyLocked()
}

// SetCatalog replaces the catalog list wholesale and clears any prior fetch
// error.
func (s *Store) SetCatalog(games []models.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.catalog = make([]models.Game, len(games))
	copy(s.catalog, games)
	s.catalogErr = ""
	s.notifyLocked()
}

// SetCatalogError records a fetch failure. The previous catalog list is
// preserved so the user keeps whatever was last loaded.
func (s *Store) SetCatalogError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.catalogErr = msg
	s.notifyLocked()
}

// IncrementDownloads bumps a game's counter in the local list, in place.
func (s *Store) IncrementDownloads(gameID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for i := range s.catalog {
		if s.catalog[i].ID == gameID {
			s.catalog[i].Downloads++
			break
		}
	}
	s.notifyLocked()
}

// UpsertGame replaces a game in the local list by id, or appends it.
func (s *Store) UpsertGame(g models.Game) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for i := range s.catalog {
		if s.catalog[i].ID == g.ID {
			s.catalog[i] = g
			s.notifyLocked()
			return
		}
	}
	s.catalog = append(s.catalog, g)
	s.notifyLocked()
}

// RemoveGame deletes a game from the local list.
func (s *Store) RemoveGame(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for i := range s.catalog {
		if s.catalog[i].ID == id {
			s.catalog = append(s.catalog[:i], s.catalog[i+1:]...)
			break
		}
	}
	s.notifyLocked()
}

// BeginReconcile claims the single-flight guard and returns the identity
// generation the attempt is bound to. ok is false when a reconciliation is
// already running or has already completed for this sign-in lifetime; the
// caller must then do nothing.
func (s *Store) BeginReconcile() (gen int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.reconciling || s.reconciled {
		return 0, false
	}
	s.reconciling = true
	return s.generation, true
}

// CommitUser applies a reconciler's user commit. Dropped when gen no longer
// matches: the identity the view was built for signed out mid-flight.
func (s *Store) CommitUser(gen int, u UserView) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		return
	}
	s.user = &u
	s.notifyLocked()
}

// CommitLibrary applies a reconciler's library commit, with the same
// generation check as CommitUser.
func (s *Store) CommitLibrary(gen int, ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.generation {
		return
	}
	s.library = make(map[string]bool, len(ids))
	for _, id := range ids {
		s.library[id] = true
	}
	s.notifyLocked()
}

// EndReconcile releases the guard. completed=true latches the guard until
// sign-out; completed=false leaves it open so a later auth event may retry.
// A stale generation is a no-op: sign-out already reset the guard for the
// next lifetime, and it must not be latched on a lifetime that ended.
func (s *Store) EndReconcile(gen int, completed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.reconciling = false
	if completed {
		s.reconciled = true
	}
}

// Reconciled reports whether a full reconciliation has completed for the
// current sign-in lifetime.
func (s *Store) Reconciled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconciled
}
