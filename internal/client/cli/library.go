package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/avolkov/gameshelf/internal/client/services"
)

// Download runs the download flow for one game. Without a session it only
// prompts for sign-in; nothing is sent anywhere.
func (a *App) Download(ctx context.Context, args []string) error {
	id, err := a.argOrPrompt(args, "Enter game id")
	if err != nil {
		return err
	}

	game, err := a.library.Download(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrSignInRequired) {
			fmt.Println("Please log in to download games (type 'login').")
			return nil
		}
		return err
	}

	fmt.Printf("Downloading %q", game.Title)
	if game.DownloadURL != "" {
		fmt.Printf(" from %s", game.DownloadURL)
	}
	fmt.Println(" ...")
	return nil
}

// Library lists the games in the user's library.
func (a *App) Library(ctx context.Context) error {
	snap := a.store.Snapshot()
	if snap.User == nil {
		fmt.Println("Please log in first.")
		return nil
	}
	if len(snap.Library) == 0 {
		fmt.Println("Your library is empty.")
		return nil
	}

	for _, g := range snap.Catalog {
		if snap.Library[g.ID] {
			fmt.Printf("%-14s %s\n", g.ID, g.Title)
		}
	}
	return nil
}

// History prints recorded download receipts.
func (a *App) History(ctx context.Context) error {
	downloads, err := a.library.History(ctx)
	if err != nil {
		return err
	}
	if len(downloads) == 0 {
		fmt.Println("No downloads yet.")
		return nil
	}
	for _, d := range downloads {
		fmt.Printf("%s  %s\n", d.StartedAt.Format("2006-01-02 15:04"), d.GameID)
	}
	return nil
}
