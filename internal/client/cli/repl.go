package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	WhoAmI(ctx context.Context, refresh bool) error
	Profile(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
}

// runREPL starts a simple read-eval-print loop for the hub CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. The loop exits on EOF or when the user types
// "exit" or "quit". Commands are read from the same reader the handlers
// prompt on, so a handler's prompts never lose buffered input.
//
// Prompt & Commands
//
//	Not logged in:
//	  - help             show available commands
//	  - login            sign in
//	  - register         create an account
//	  - reset            reset a forgotten password
//	  - exit | quit      leave the program
//
//	Logged in:
//	  - help             show available commands
//	  - whoami [refresh] show the current user, optionally reloading it
//	  - profile          edit the profile
//	  - logout           sign out
//	  - exit | quit      leave the program
//
// Errors returned by handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("hub %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		var cmdErr error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: whoami [refresh], profile, logout, exit")
			} else {
				printlnFn("Available commands: login, register, reset, exit")
			}

		case "login":
			cmdErr = a.Login(ctx)

		case "register":
			cmdErr = a.Register(ctx)

		case "reset", "forgot-password":
			cmdErr = a.ForgotPassword(ctx)

		case "whoami", "profile", "logout":
			if !a.isLoggedIn() {
				printlnFn("Please log in first")
				continue
			}
			switch cmd {
			case "whoami":
				refresh := len(parts) > 1 && (parts[1] == "refresh" || parts[1] == "--refresh")
				cmdErr = a.WhoAmI(ctx, refresh)
			case "profile":
				cmdErr = a.Profile(ctx)
			case "logout":
				cmdErr = a.Logout(ctx)
			}

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if cmdErr != nil {
			printlnFn("Error:", cmdErr.Error())
		}
		if err != nil {
			return
		}
	}
}
