package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/campusmart/internal/session"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "login <username>",
		Short: "Start a session",
		Long: `Record username as the current operator.

Credentials are not checked; every operator is an admin.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			u, err := app.Session.Login(commandContext(cmd), args[0])
			if errors.Is(err, session.ErrEmptyUsername) {
				return WrapExitError(ExitCommandError, "login failed", err)
			}
			if err != nil {
				return storeError("login failed", err)
			}
			return newFormatter(rootOpts, cmd).Success(u, fmt.Sprintf("Logged in as %s (%s)", u.Username, u.Role))
		},
	}
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "logout",
		Short:         "End the session",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Session.Logout(commandContext(cmd)); err != nil {
				return storeError("logout failed", err)
			}
			return newFormatter(rootOpts, cmd).Success(map[string]bool{"logged_in": false}, "Logged out")
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "whoami",
		Short:         "Show the current operator",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			f := newFormatter(rootOpts, cmd)
			if app.User == nil {
				return f.Emit(map[string]bool{"logged_in": false}, func(w io.Writer) {
					fmt.Fprintln(w, "Not logged in")
				})
			}
			return f.Success(app.User, fmt.Sprintf("%s (%s)", app.User.Username, app.User.Role))
		},
	}
}
