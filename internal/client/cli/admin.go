package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/avolkov/gameshelf/internal/client/models"
)

// AddGame interactively creates a catalog listing.
func (a *App) AddGame(ctx context.Context) error {
	title, err := getSimpleText(a.reader, "Title", os.Stdout)
	if err != nil {
		return err
	}
	genre, err := getSimpleText(a.reader, "Genre", os.Stdout)
	if err != nil {
		return err
	}
	platform, err := getSimpleText(a.reader, "Platform", os.Stdout)
	if err != nil {
		return err
	}
	downloadURL, err := getSimpleText(a.reader, "Download URL", os.Stdout)
	if err != nil {
		return err
	}
	description, err := getMultiline(a.reader, "Description", os.Stdout)
	if err != nil {
		return err
	}

	game := &models.Game{
		Title:       title,
		Genre:       genre,
		Platform:    platform,
		DownloadURL: downloadURL,
		Description: description,
	}
	if err := a.admin.AddGame(ctx, game); err != nil {
		return err
	}

	fmt.Println("Added:", game.ID)
	return nil
}

// EditGame updates a listing's title and description.
func (a *App) EditGame(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter game id")
	if err != nil {
		return err
	}

	snap := a.store.Snapshot()
	var game *models.Game
	for i := range snap.Catalog {
		if snap.Catalog[i].ID == id {
			g := snap.Catalog[i]
			game = &g
			break
		}
	}
	if game == nil {
		fmt.Println("No such game:", id)
		return nil
	}

	title, err := getSimpleText(a.reader, fmt.Sprintf("Title [%s]", game.Title), os.Stdout)
	if err != nil {
		return err
	}
	if title != "" {
		game.Title = title
	}
	description, err := getMultiline(a.reader, "Description (empty keeps current)", os.Stdout)
	if err != nil {
		return err
	}
	if description != "" {
		game.Description = description
	}

	if err := a.admin.EditGame(ctx, game); err != nil {
		return err
	}
	fmt.Println("Updated.")
	return nil
}

// RemoveGame deletes a listing.
func (a *App) RemoveGame(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter game id")
	if err != nil {
		return err
	}
	if err := a.admin.RemoveGame(ctx, id); err != nil {
		return err
	}
	fmt.Println("Removed:", id)
	return nil
}

// Reports lists the pending moderation queue.
func (a *App) Reports(ctx context.Context) error {
	reports, err := a.admin.PendingReports(ctx)
	if err != nil {
		return err
	}
	if len(reports) == 0 {
		fmt.Println("No pending reports.")
		return nil
	}
	for _, r := range reports {
		fmt.Printf("%-14s game=%-14s %s\n", r.ID, r.GameID, r.Reason)
	}
	return nil
}

// Resolve closes one report.
func (a *App) Resolve(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter report id")
	if err != nil {
		return err
	}
	if err := a.admin.Resolve(ctx, id); err != nil {
		return err
	}
	fmt.Println("Resolved:", id)
	return nil
}
