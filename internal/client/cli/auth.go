package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/avolkov/gameshelf/internal/backend"
)

// getSimpleText, getPassword, and getMultiline are indirections used to
// facilitate testing. They point to interactive input helpers and can be
// swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getMultiline  = GetMultiline
)

// Login prompts for credentials and signs in. An unconfirmed account gets a
// verify-first message instead of a session; reconciliation and state
// updates happen in the background once the sign-in event fires.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	if err := a.session.SignIn(ctx, email, password); err != nil {
		if errors.Is(err, backend.ErrEmailNotConfirmed) {
			fmt.Println("Please verify your email address first, then log in again.")
			return nil
		}
		return err
	}

	fmt.Println("Signed in.")
	return nil
}

// Register prompts for account details and signs up. When the backend
// requires email verification the user is told to check their inbox.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Choose a username", os.Stdout)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}

	pending, err := a.session.SignUp(ctx, email, password, username)
	if err != nil {
		return err
	}
	if pending {
		fmt.Println("Almost there! Check your inbox and verify your email, then log in.")
		return nil
	}

	fmt.Println("Account created, you are signed in.")
	return nil
}

// Logout signs out; local identity state is cleared by the auth event.
func (a *App) Logout(ctx context.Context) error {
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Println("Signed out.")
	return nil
}

// WhoAmI prints the current user view.
func (a *App) WhoAmI(ctx context.Context) error {
	snap := a.store.Snapshot()
	if snap.User == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("%s <%s>\n", snap.User.DisplayName, snap.User.Email)
	if snap.User.IsAdmin {
		fmt.Printf("admin, %d pending reports\n", snap.User.PendingReports)
	}
	fmt.Printf("library: %d games\n", len(snap.Library))
	return nil
}
