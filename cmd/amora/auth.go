package main

import (
	"github.com/phrazzld/amora-planner/internal/domain"
	"github.com/phrazzld/amora-planner/internal/wire"
	"github.com/spf13/cobra"
)

// sessionOutput is printed after login. The token itself is never shown.
type sessionOutput struct {
	User wire.User `json:"user"`
	Mode string    `json:"mode"`
}

func (c *cli) registerCmd() *cobra.Command {
	var reg domain.Registration
	var name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("name") {
				reg.Name = &name
			}
			user, err := c.app.service.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), wire.UserFromDomain(user))
		},
	}
	cmd.Flags().StringVar(&reg.Email, "email", "", "account email")
	cmd.Flags().StringVar(&reg.Password, "password", "", "account password")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func (c *cli) loginCmd() *cobra.Command {
	var creds domain.Credentials
	var fallback bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the access token",
		Long: "Log in and store the access token. With --offline-fallback an unreachable " +
			"server switches to offline mode and logs in as the demo user.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			login := c.app.service.Login
			if fallback {
				login = c.app.service.LoginWithDemoFallback
			}
			session, err := login(cmd.Context(), creds)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), sessionOutput{
				User: wire.UserFromDomain(session.User),
				Mode: c.app.service.Mode().String(),
			})
		},
	}
	cmd.Flags().StringVar(&creds.Email, "email", "", "account email")
	cmd.Flags().StringVar(&creds.Password, "password", "", "account password")
	cmd.Flags().BoolVar(&fallback, "offline-fallback", false, "continue offline if the server is unreachable")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.service.Logout(cmd.Context())
		},
	}
}

func (c *cli) meCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "Show the current user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.app.service.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), wire.UserFromDomain(user))
		},
	}

	var name string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change the display name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user, err := c.app.service.UpdateUser(cmd.Context(), domain.UserUpdate{Name: &name})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), wire.UserFromDomain(user))
		},
	}
	update.Flags().StringVar(&name, "name", "", "new display name")
	_ = update.MarkFlagRequired("name")
	cmd.AddCommand(update)
	return cmd
}
