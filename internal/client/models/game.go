// Package models defines the storefront's client-side record types.
package models

import "time"

// Game is one catalog listing. Downloads is the popularity counter the
// catalog is ordered by; it only ever moves up.
type Game struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Genre       string `json:"genre"`
	Platform    string `json:"platform"`
	ImageURL    string `json:"image_url"`
	DownloadURL string `json:"download_url"`
	Downloads   int64  `json:"downloads"`
}

// Profile is the stored profile row for an identity. Pointer fields model
// columns the row may not define: a nil IsAdmin (or an empty Username) means
// the row carries no authoritative value for that field and the caller keeps
// whatever it already had.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	IsAdmin  *bool  `json:"is_admin,omitempty"`
}

// Report is a moderation report filed against a catalog listing.
type Report struct {
	ID        string    `json:"id"`
	GameID    string    `json:"game_id"`
	Reason    string    `json:"reason"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Report statuses as stored in the reports table.
const (
	ReportStatusPending  = "pending"
	ReportStatusResolved = "resolved"
)

// Download is a local receipt written after a download is started.
type Download struct {
	ID        string
	GameID    string
	StartedAt time.Time
}
