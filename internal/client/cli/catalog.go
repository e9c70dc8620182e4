package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/avolkov/gameshelf/internal/client/models"
)

// List prints the catalog. When the last fetch failed, the previous list is
// shown with an error banner; if nothing was ever loaded, the local cache is
// used as the offline fallback.
func (a *App) List(ctx context.Context) error {
	snap := a.store.Snapshot()

	games := snap.Catalog
	if snap.CatalogErr != "" {
		fmt.Println("!", snap.CatalogErr, "(type 'retry' to try again)")
		if len(games) == 0 {
			cached, err := a.catalog.Cached(ctx)
			if err == nil && len(cached) > 0 {
				fmt.Println("showing the locally cached catalog:")
				games = cached
			}
		}
	}

	if len(games) == 0 {
		fmt.Println("The catalog is empty or still loading.")
		return nil
	}

	for _, g := range games {
		marker := " "
		if snap.Library[g.ID] {
			marker = "*"
		}
		fmt.Printf("%s %-14s %-28s %-10s %8d downloads\n", marker, g.ID, g.Title, g.Platform, g.Downloads)
	}
	return nil
}

// Show prints one game's details. The id comes from the command argument or
// an interactive prompt.
func (a *App) Show(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter game id")
	if err != nil {
		return err
	}

	snap := a.store.Snapshot()
	var game *models.Game
	for i := range snap.Catalog {
		if snap.Catalog[i].ID == id {
			game = &snap.Catalog[i]
			break
		}
	}
	if game == nil {
		fmt.Println("No such game:", id)
		return nil
	}

	fmt.Printf("%s [%s, %s]\n", game.Title, game.Genre, game.Platform)
	fmt.Printf("%d downloads\n", game.Downloads)
	if game.Description != "" {
		fmt.Println(game.Description)
	}
	if snap.Library[game.ID] {
		fmt.Println("(in your library)")
	}
	return nil
}

// Retry re-issues the catalog fetch after a failure.
func (a *App) Retry(ctx context.Context) error {
	if err := a.catalog.Fetch(ctx); err != nil {
		return err
	}
	fmt.Println("Catalog refreshed.")
	return nil
}

func (a *App) argOrPrompt(args []string, prompt string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	return getSimpleText(a.reader, prompt, os.Stdout)
}
