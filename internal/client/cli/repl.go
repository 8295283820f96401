package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// execIface is the command surface the REPL dispatches to.
type execIface interface {
	isLoggedIn() bool
	Login(ctx context.Context) error
	Resume(ctx context.Context) error
	Games(ctx context.Context) error
	Logout(ctx context.Context) error
	Download(ctx context.Context) error
}

// runREPL reads commands line by line from reader until EOF, "exit" or
// "quit". Command errors are reported by the handlers themselves.
//
//	Not logged in:  login, resume, download, help, exit
//	Logged in:      games, logout, download, help, exit
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "steamhub %s> ", statusFn())

		line, err := reader.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}

		switch parts[0] {
		case "help":
			if a.isLoggedIn() {
				fmt.Fprintln(w, "Available commands: games, logout, download, exit")
			} else {
				fmt.Fprintln(w, "Available commands: login, resume, download, exit")
			}
		case "login":
			_ = a.Login(ctx)
		case "resume":
			_ = a.Resume(ctx)
		case "games", "l":
			_ = a.Games(ctx)
		case "logout":
			_ = a.Logout(ctx)
		case "download":
			_ = a.Download(ctx)
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		default:
			fmt.Fprintln(w, "Unknown command:", parts[0])
		}

		if err != nil {
			return
		}
	}
}
