package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	id, ok := a.auth.Current()
	if !ok {
		return ""
	}
	return fmt.Sprintf("(%s %s)", id.Name, id.Role.DisplayName())
}

// Root runs the interactive shell until the user exits.
func (a *App) Root(ctx context.Context) {
	a.println("Employee Hub CLI (type 'help' for commands)")
	if id, ok := a.auth.Current(); ok {
		a.printf("Welcome back, %s\n", id.Name)
	}
	runREPL(ctx, a, a.getStatus, a.reader)
}
