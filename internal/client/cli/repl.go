package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with
// a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a
// lightweight stub.
type execIface interface {
	isLoggedIn() bool
	isAdmin() bool
	Login(ctx context.Context) error
	Register(ctx context.Context) error
	Logout(ctx context.Context) error
	List(ctx context.Context) error
	Show(ctx context.Context, args []string) error
	Retry(ctx context.Context) error
	Library(ctx context.Context) error
	Download(ctx context.Context, args []string) error
	History(ctx context.Context) error
	WhoAmI(ctx context.Context) error
	AddGame(ctx context.Context) error
	EditGame(ctx context.Context, args []string) error
	RemoveGame(ctx context.Context, args []string) error
	Reports(ctx context.Context) error
	Resolve(ctx context.Context, args []string) error
}

// runREPL reads a line from the scanner, parses the first token as the
// command, and dispatches to methods on 'a'. The loop exits on scanner EOF
// or when the user types "exit" or "quit".
//
// Errors returned by command handlers are printed and the loop continues;
// no command failure is fatal to the session.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("shelf %s> ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]
		args := parts[1:]

		var err error
		switch cmd {
		case "help":
			printHelp(a)

		case "login":
			err = a.Login(ctx)

		case "register":
			err = a.Register(ctx)

		case "logout":
			err = a.Logout(ctx)

		case "l", "list":
			err = a.List(ctx)

		case "show":
			err = a.Show(ctx, args)

		case "retry":
			err = a.Retry(ctx)

		case "library":
			err = a.Library(ctx)

		case "download", "dl":
			err = a.Download(ctx, args)

		case "history":
			err = a.History(ctx)

		case "whoami":
			err = a.WhoAmI(ctx)

		case "addgame":
			err = a.AddGame(ctx)

		case "editgame":
			err = a.EditGame(ctx, args)

		case "delgame":
			err = a.RemoveGame(ctx, args)

		case "reports":
			err = a.Reports(ctx)

		case "resolve":
			err = a.Resolve(ctx, args)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err.Error())
		}
	}
}

func printHelp(a execIface) {
	printlnFn("Available commands: (l)ist, show, retry, help, exit")
	if a.isLoggedIn() {
		printlnFn("  account: download, library, history, whoami, logout")
	} else {
		printlnFn("  account: login, register")
	}
	if a.isAdmin() {
		printlnFn("  admin: addgame, editgame, delgame, reports, resolve")
	}
}
