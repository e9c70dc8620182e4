package catalog

import (
	"context"
	"fmt"

	"github.com/avolkov/gameshelf/internal/client/models"
	"github.com/avolkov/gameshelf/internal/dbx"
)

// SQLiteRepository implements Repository over a DBTX (either *sql.DB or
// *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceAll(ctx context.Context, games []models.Game) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM games_cache`); err != nil {
		return fmt.Errorf("failed to clear games cache: %w", err)
	}
	for i := range games {
		if err := r.Upsert(ctx, &games[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *SQLiteRepository) GetAll(ctx context.Context) ([]models.Game, error) {
	query := `SELECT id, title, description, genre, platform, image_url, download_url, downloads
		FROM games_cache ORDER BY downloads DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select cached games: %w", err)
	}
	defer rows.Close()

	var result []models.Game
	for rows.Next() {
		var g models.Game
		if err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.Genre, &g.Platform,
			&g.ImageURL, &g.DownloadURL, &g.Downloads); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *SQLiteRepository) Upsert(ctx context.Context, g *models.Game) error {
	query := `INSERT INTO games_cache (id, title, description, genre, platform, image_url, download_url, downloads)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title,
			description = excluded.description,
			genre = excluded.genre,
			platform = excluded.platform,
			image_url = excluded.image_url,
			download_url = excluded.download_url,
			downloads = excluded.downloads
	`
	_, err := r.db.ExecContext(ctx, query,
		g.ID, g.Title, g.Description, g.Genre, g.Platform, g.ImageURL, g.DownloadURL, g.Downloads)
	if err != nil {
		return fmt.Errorf("failed to upsert cached game: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM games_cache WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete cached game: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) AddDownload(ctx context.Context, d *models.Download) error {
	query := `INSERT INTO downloads (id, game_id, started_at) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, d.ID, d.GameID, d.StartedAt); err != nil {
		return fmt.Errorf("failed to record download: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Downloads(ctx context.Context) ([]models.Download, error) {
	query := `SELECT id, game_id, started_at FROM downloads ORDER BY started_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select downloads: %w", err)
	}
	defer rows.Close()

	var result []models.Download
	for rows.Next() {
		var d models.Download
		if err := rows.Scan(&d.ID, &d.GameID, &d.StartedAt); err != nil {
			return nil, err
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
