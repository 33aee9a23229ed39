package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isSignedIn() bool
	setIdle(idle bool)
	SignUp(ctx context.Context) error
	SignIn(ctx context.Context) error
	SignInFederated(ctx context.Context) error
	SignInAnonymously(ctx context.Context) error
	SignOut(ctx context.Context) error
	List(ctx context.Context) error
	Filter(ctx context.Context, term string) error
	Add(ctx context.Context) error
	Edit(ctx context.Context, row int) error
	Delete(ctx context.Context, row int) error
}

// runREPL reads commands line by line and dispatches them to a.
//
//	Signed out:
//	  help, signup, signin, google, anon, exit | quit
//
//	Signed in:
//	  help, l | list, filter [term], add, edit <n>, delete <n>, signout,
//	  exit | quit
//
// Rows are numbered as printed by list. Command errors are reported by the
// handlers themselves. The loop exits on EOF, "exit" or "quit".
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		a.setIdle(true)
		printlnFn(fmt.Sprintf("contacts %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		a.setIdle(false)
		if err != nil && (!errors.Is(err, io.EOF) || strings.TrimSpace(line) == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		if contactCommands[cmd] && !a.isSignedIn() {
			printlnFn("Sign in first: signup, signin, google or anon")
			continue
		}

		switch cmd {
		case "help":
			if a.isSignedIn() {
				printlnFn("Available commands: (l)ist, filter [term], add, edit <n>, delete <n>, signout, exit")
			} else {
				printlnFn("Available commands: signup, signin, google, anon, exit")
			}

		case "signup":
			_ = a.SignUp(ctx)

		case "signin":
			_ = a.SignIn(ctx)

		case "google":
			_ = a.SignInFederated(ctx)

		case "anon":
			_ = a.SignInAnonymously(ctx)

		case "signout":
			_ = a.SignOut(ctx)

		case "l", "list":
			_ = a.List(ctx)

		case "filter":
			_ = a.Filter(ctx, strings.Join(args, " "))

		case "add":
			_ = a.Add(ctx)

		case "edit", "delete":
			row, ok := parseRow(args)
			if !ok {
				printlnFn(fmt.Sprintf("Usage: %s <n>", cmd))
				continue
			}
			if cmd == "edit" {
				_ = a.Edit(ctx, row)
			} else {
				_ = a.Delete(ctx, row)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}

var contactCommands = map[string]bool{
	"l": true, "list": true, "filter": true, "add": true, "edit": true, "delete": true, "signout": true,
}

func parseRow(args []string) (int, bool) {
	if len(args) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
