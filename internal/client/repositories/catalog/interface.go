// Package catalog caches the game catalog in the local database so the
// storefront stays browsable when the backend is unreachable, and records
// download receipts.
package catalog

import (
	"context"

	"github.com/avolkov/gameshelf/internal/client/models"
)

type Repository interface {
	// ReplaceAll swaps the cached catalog for the given list. Callers run it
	// inside a transaction so readers never see a half-written cache.
	ReplaceAll(ctx context.Context, games []models.Game) error

	// GetAll returns the cached catalog ordered by descending downloads.
	GetAll(ctx context.Context) ([]models.Game, error)

	// Upsert inserts or replaces one cached row.
	Upsert(ctx context.Context, game *models.Game) error

	// Delete removes one cached row.
	Delete(ctx context.Context, id string) error

	// AddDownload records a download receipt.
	AddDownload(ctx context.Context, d *models.Download) error

	// Downloads returns recorded receipts, newest first.
	Downloads(ctx context.Context) ([]models.Download, error)
}
