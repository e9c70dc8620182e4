// Package cli is the interactive storefront surface: a small REPL over the
// application services, reading view state from the shared store.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/avolkov/gameshelf/internal/backend"
	"github.com/avolkov/gameshelf/internal/client/config"
	"github.com/avolkov/gameshelf/internal/client/localdb"
	"github.com/avolkov/gameshelf/internal/client/services"
	"github.com/avolkov/gameshelf/internal/client/state"
	"github.com/avolkov/gameshelf/internal/logging"
)

type App struct {
	config  *config.Config
	store   *state.Store
	session services.SessionService
	catalog services.CatalogService
	library services.LibraryService
	admin   services.AdminService
	log     logging.Logger
	reader  *bufio.Reader
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewFileLogger(cfg.LogFile)
	ctx := context.Background()

	db, err := localdb.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Error(ctx, "local database init failed", "error", err)
		return nil, err
	}

	client := backend.NewHTTPClient(cfg.BackendAddr, cfg.APIKey, cfg.RequestTimeout)
	store := state.NewStore()

	reconciler := services.NewReconciler(client, store, logger)
	catalogSvc := services.NewCatalogService(client, store, db, logger)
	sessionSvc := services.NewSessionService(client, store, db, reconciler, catalogSvc, logger)
	librarySvc := services.NewLibraryService(client, store, db, logger)
	adminSvc := services.NewAdminService(client, store, db, logger)

	return &App{
		config:  cfg,
		store:   store,
		session: sessionSvc,
		catalog: catalogSvc,
		library: librarySvc,
		admin:   adminSvc,
		log:     logger,
		reader:  bufio.NewReader(os.Stdin),
	}, nil
}

// Run boots the application and hands control to the REPL. The auth
// subscription and backend client are released on the way out.
func (a *App) Run(ctx context.Context) {
	defer func() {
		a.store.Close()
		if err := a.session.Close(ctx); err != nil {
			a.log.Warn(ctx, "shutdown cleanup failed", "error", err)
		}
	}()

	a.session.Boot(ctx)

	fmt.Println("Welcome to GameShelf (type 'help' for commands)")
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	return a.store.Snapshot().User != nil
}

func (a *App) isAdmin() bool {
	snap := a.store.Snapshot()
	return snap.User != nil && snap.User.IsAdmin
}

// status renders the prompt decoration from the current view state.
func (a *App) status() string {
	snap := a.store.Snapshot()
	switch {
	case snap.Booting:
		return "(booting)"
	case snap.User == nil:
		return "(guest)"
	}

	s := snap.User.DisplayName
	if snap.User.IsAdmin {
		s += ", admin"
		if n := snap.User.PendingReports; n > 0 {
			s += fmt.Sprintf(", %d reports", n)
		}
	}
	return "(" + s + ")"
}
