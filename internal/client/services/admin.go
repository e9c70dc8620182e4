package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/avolkov/gameshelf/internal/backend"
	"github.com/avolkov/gameshelf/internal/client/models"
	"github.com/avolkov/gameshelf/internal/client/repositories/catalog"
	"github.com/avolkov/gameshelf/internal/client/state"
	"github.com/avolkov/gameshelf/internal/logging"
)

// AdminService covers the administrative surface: catalog CRUD and the
// moderation queue. The IsAdmin check here only keeps the UI honest; the
// backend's row-level rules are the actual authorization.
type AdminService interface {
	AddGame(ctx context.Context, game *models.Game) error
	EditGame(ctx context.Context, game *models.Game) error
	RemoveGame(ctx context.Context, id string) error
	PendingReports(ctx context.Context) ([]models.Report, error)
	Resolve(ctx context.Context, reportID string) error
}

type adminService struct {
	client backend.Client
	store  *state.Store
	db     *sql.DB
	log    logging.Logger
}

func NewAdminService(client backend.Client, store *state.Store, db *sql.DB, log logging.Logger) AdminService {
	return &adminService{client: client, store: store, db: db, log: log}
}

func (s *adminService) requireAdmin() error {
	snap := s.store.Snapshot()
	if snap.User == nil {
		return ErrSignInRequired
	}
	if !snap.User.IsAdmin {
		return ErrAdminOnly
	}
	return nil
}

func (s *adminService) cacheRepo() catalog.Repository {
	return catalog.NewSQLiteRepository(s.db)
}

func (s *adminService) AddGame(ctx context.Context, game *models.Game) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if game.ID == "" {
		game.ID = uuid.NewString()
	}
	if err := s.client.InsertGame(ctx, game); err != nil {
		return fmt.Errorf("failed to add game: %w", err)
	}
	s.store.UpsertGame(*game)
	if err := s.cacheRepo().Upsert(ctx, game); err != nil {
		s.log.Warn(ctx, "cache update failed", "game", game.ID, "error", err)
	}
	return nil
}

func (s *adminService) EditGame(ctx context.Context, game *models.Game) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.client.UpdateGame(ctx, game); err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	s.store.UpsertGame(*game)
	if err := s.cacheRepo().Upsert(ctx, game); err != nil {
		s.log.Warn(ctx, "cache update failed", "game", game.ID, "error", err)
	}
	return nil
}

func (s *adminService) RemoveGame(ctx context.Context, id string) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.client.DeleteGame(ctx, id); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	s.store.RemoveGame(id)
	if err := s.cacheRepo().Delete(ctx, id); err != nil {
		s.log.Warn(ctx, "cache delete failed", "game", id, "error", err)
	}
	return nil
}

func (s *adminService) PendingReports(ctx context.Context) ([]models.Report, error) {
	if err := s.requireAdmin(); err != nil {
		return nil, err
	}
	return s.client.ListReports(ctx)
}

// Resolve closes one report and drops the pending counter on the user view
// by one so the prompt stays roughly accurate without a refetch.
func (s *adminService) Resolve(ctx context.Context, reportID string) error {
	if err := s.requireAdmin(); err != nil {
		return err
	}
	if err := s.client.ResolveReport(ctx, reportID); err != nil {
		return fmt.Errorf("failed to resolve report: %w", err)
	}
	if snap := s.store.Snapshot(); snap.User != nil && snap.User.PendingReports > 0 {
		s.store.SetPendingReports(snap.User.PendingReports - 1)
	}
	return nil
}
