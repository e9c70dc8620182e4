package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/avolkov/gameshelf/internal/backend"
	"github.com/avolkov/gameshelf/internal/client/models"
	"github.com/avolkov/gameshelf/internal/client/repositories/catalog"
	"github.com/avolkov/gameshelf/internal/client/state"
	"github.com/avolkov/gameshelf/internal/logging"
)

// LibraryService runs the download flow: library membership, the popularity
// counter, and local download receipts.
type LibraryService interface {
	// Download archives the game into the user's library (first download
	// only), bumps its download counter, and starts the download. Returns
	// the game as it appears after the counter bump.
	Download(ctx context.Context, gameID string) (*models.Game, error)

	// History returns recorded download receipts, newest first.
	History(ctx context.Context) ([]models.Download, error)
}

type libraryService struct {
	client backend.Client
	store  *state.Store
	db     *sql.DB
	log    logging.Logger
}

func NewLibraryService(client backend.Client, store *state.Store, db *sql.DB, log logging.Logger) LibraryService {
	return &libraryService{client: client, store: store, db: db, log: log}
}

func (s *libraryService) cacheRepo() catalog.Repository {
	return catalog.NewSQLiteRepository(s.db)
}

// Download requires an identity; without one it returns ErrSignInRequired
// before anything is sent to the backend. The membership row is inserted
// only the first time, and the local set is mutated only after the insert
// succeeded. The counter bump happens on every call, repeat downloads
// included: the counter counts downloads, not owners. A failed bump is
// logged but does not stop the download.
func (s *libraryService) Download(ctx context.Context, gameID string) (*models.Game, error) {
	snap := s.store.Snapshot()
	if snap.User == nil {
		return nil, ErrSignInRequired
	}

	var game *models.Game
	for i := range snap.Catalog {
		if snap.Catalog[i].ID == gameID {
			game = &snap.Catalog[i]
			break
		}
	}
	if game == nil {
		return nil, ErrUnknownGame
	}

	if !snap.Library[gameID] {
		if err := s.client.InsertLibraryEntry(ctx, snap.User.ID, gameID); err != nil {
			return nil, fmt.Errorf("failed to add to library: %w", err)
		}
		s.store.AddToLibrary(gameID)
	}

	if err := s.client.IncrementDownloads(ctx, gameID); err != nil {
		s.log.Warn(ctx, "download counter update failed", "game", gameID, "error", err)
	}
	s.store.IncrementDownloads(gameID)
	game.Downloads++

	receipt := &models.Download{ID: uuid.NewString(), GameID: gameID, StartedAt: time.Now()}
	if err := s.cacheRepo().AddDownload(ctx, receipt); err != nil {
		s.log.Warn(ctx, "failed to record download receipt", "game", gameID, "error", err)
	}

	s.log.Info(ctx, "download started", "game", gameID, "url", game.DownloadURL)
	return game, nil
}

func (s *libraryService) History(ctx context.Context) ([]models.Download, error) {
	return s.cacheRepo().Downloads(ctx)
}
