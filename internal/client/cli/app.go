package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/officehub/internal/client/client"
	"github.com/dmitrijs2005/officehub/internal/client/config"
	"github.com/dmitrijs2005/officehub/internal/client/services"
	"github.com/dmitrijs2005/officehub/internal/client/session"
	"github.com/dmitrijs2005/officehub/internal/client/storage"
	"github.com/dmitrijs2005/officehub/internal/filex"
	"github.com/dmitrijs2005/officehub/internal/logging"
	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	api      client.Client
	auth     services.AuthService
	newReset func() *services.PasswordReset
	reader   *bufio.Reader
	out      io.Writer

	// forms selects huh forms and the TUI over line prompts.
	forms bool
}

// NewApp opens the session database, builds the API client and services and
// restores any persisted session.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	dsn := c.DatabasePath
	if dsn != storage.MemoryDSN {
		path, err := filex.EnsureParentDir(dsn)
		if err != nil {
			return nil, err
		}
		dsn = path
	}

	db, err := storage.InitDatabase(ctx, dsn)
	if err != nil {
		logger.Error(ctx, "error initializing database", "path", c.DatabasePath, "error", err)
		return nil, err
	}

	api, err := client.NewHTTPClient(c.APIURL, c.RequestTimeout, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	as := services.NewAuthService(api, session.NewSQLiteStorage(db), logger)
	as.Restore(ctx)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		api:      api,
		auth:     as,
		newReset: func() *services.PasswordReset { return services.NewPasswordReset(api, logger) },
		reader:   bufio.NewReader(os.Stdin),
		out:      os.Stdout,
		forms:    !c.Plain && isTerminal(int(os.Stdin.Fd())) && isTerminal(int(os.Stdout.Fd())),
	}, nil
}

// Close releases the API client and the database.
func (a *App) Close() error {
	var firstErr error
	if a.api != nil {
		firstErr = a.api.Close()
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (a *App) isLoggedIn() bool {
	return a.auth.IsAuthenticated()
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
