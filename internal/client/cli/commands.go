package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/officehub/internal/buildinfo"
	"github.com/dmitrijs2005/officehub/internal/client/config"
	"github.com/dmitrijs2005/officehub/internal/logging"
	"github.com/spf13/cobra"
)

// newApp and lookupEnv are test seams.
var (
	newApp    = NewApp
	lookupEnv = os.LookupEnv
)

// command holds the App built for the running command so it can be closed
// once the command returns.
type command struct {
	app *App
}

func (c *command) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags(), lookupEnv)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	app, err := newApp(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	c.app = app
	return nil
}

func (c *command) close() error {
	if c.app == nil {
		return nil
	}
	return c.app.Close()
}

func newRootCmd(c *command) *cobra.Command {
	root := &cobra.Command{
		Use:   "hubcli",
		Short: "Command-line client for the employee hub",
		Long: `hubcli signs you in to the employee hub, shows and edits your profile
and resets a forgotten password.

Without a subcommand an interactive shell is started.

Environment Variables:
  HUB_API_URL, HUB_DATABASE_PATH, HUB_REQUEST_TIMEOUT,
  HUB_LOG_LEVEL, HUB_LOG_FORMAT, HUB_PLAIN  (also read from .env)`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Root(cmd.Context())
			return nil
		},
	}
	config.BindFlags(root.PersistentFlags())

	var refresh bool
	whoami := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.WhoAmI(cmd.Context(), refresh)
		},
	}
	whoami.Flags().BoolVar(&refresh, "refresh", false, "reload the profile from the server")

	root.AddCommand(
		&cobra.Command{
			Use:   "login",
			Short: "Sign in and remember the session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.app.Login(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "register",
			Short: "Create an account and sign in",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.app.Register(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Sign out and forget the session",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.app.Logout(cmd.Context())
			},
		},
		whoami,
		&cobra.Command{
			Use:   "profile",
			Short: "Edit your profile",
			Long: "Edit your profile. Unchanged fields are not sent. An optional field\n" +
				"(phone, department, position) is cleared by emptying it in the form,\n" +
				"or by entering - at a line prompt.",
			Args: cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.app.Profile(cmd.Context())
			},
		},
		&cobra.Command{
			Use:     "forgot-password",
			Aliases: []string{"reset"},
			Short:   "Reset a forgotten password with an emailed code",
			Args:    cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.app.ForgotPassword(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print build information",
			Args:  cobra.NoArgs,
			// no App needed
			PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
			Run: func(cmd *cobra.Command, _ []string) {
				buildinfo.PrintBuildData(cmd.OutOrStdout())
			},
		},
	)
	return root
}

// Execute runs the command line in args against a fresh command tree.
func Execute(ctx context.Context, args []string) error {
	c := &command{}
	root := newRootCmd(c)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if cerr := c.close(); err == nil {
		err = cerr
	}
	return err
}
