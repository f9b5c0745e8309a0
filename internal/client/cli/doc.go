// Package cli provides the hubcli command-line client.
//
// It wires configuration, the local session database, the HTTP API client
// and the session and password-reset services, and exposes them both as
// cobra subcommands and as an interactive REPL.
//
// Key features:
//   - Login / Register / Logout with a session that survives restarts
//   - whoami (optionally refreshed from the server) and profile editing
//   - Forgot-password wizard: a bubbletea UI on a terminal, line prompts
//     otherwise (or with --plain)
//
// The REPL is started via App.Root(ctx), which blocks until the user exits.
// See Execute, App and runREPL for details.
package cli
