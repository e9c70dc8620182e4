package services

import (
	"context"
	"database/sql"

	"github.com/avolkov/gameshelf/internal/backend"
	"github.com/avolkov/gameshelf/internal/client/models"
	"github.com/avolkov/gameshelf/internal/client/repositories/catalog"
	"github.com/avolkov/gameshelf/internal/client/state"
	"github.com/avolkov/gameshelf/internal/dbx"
	"github.com/avolkov/gameshelf/internal/logging"
)

// catalogUnavailableMsg is the user-visible message shown next to the retry
// affordance when a fetch fails.
const catalogUnavailableMsg = "could not load the catalog; check your connection and retry"

// CatalogService loads the public catalog. Fetch is idempotent and safe to
// call repeatedly; every failure leaves the previously loaded list in place.
type CatalogService interface {
	Fetch(ctx context.Context) error
	// Cached returns the locally cached copy of the catalog for offline
	// browsing.
	Cached(ctx context.Context) ([]models.Game, error)
}

type catalogService struct {
	client backend.Client
	store  *state.Store
	db     *sql.DB
	log    logging.Logger
}

func NewCatalogService(client backend.Client, store *state.Store, db *sql.DB, log logging.Logger) CatalogService {
	return &catalogService{client: client, store: store, db: db, log: log}
}

// Fetch requests the catalog ordered by descending downloads. On success the
// in-memory list is replaced wholesale, any prior error state cleared, and
// the local cache refreshed best-effort. On failure the previous list is
// preserved and a user-visible error recorded; retry is user-initiated.
func (s *catalogService) Fetch(ctx context.Context) error {
	games, err := s.client.ListGames(ctx)
	if err != nil {
		s.store.SetCatalogError(catalogUnavailableMsg)
		return err
	}

	s.store.SetCatalog(games)

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return catalog.NewSQLiteRepository(tx).ReplaceAll(ctx, games)
	})
	if err != nil {
		s.log.Warn(ctx, "catalog cache refresh failed", "error", err)
	}
	return nil
}

func (s *catalogService) Cached(ctx context.Context) ([]models.Game, error) {
	return catalog.NewSQLiteRepository(s.db).GetAll(ctx)
}
