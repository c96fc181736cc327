package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/educheia/educheia/internal/auth"
	"github.com/educheia/educheia/internal/validate"
)

// newTokenCommand issues an access token for local testing of the signed-in
// API surface.
func newTokenCommand() *cobra.Command {
	var (
		secret string
		p      auth.Profile
		admin  bool
	)
	cmd := &cobra.Command{
		Use:   "token <user-id>",
		Short: "Print an access token for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("JWT_SECRET is required")
			}
			if msg := validate.AuthorName(p.Name); msg != "" {
				return errors.New(msg)
			}
			p.UserID = args[0]
			if admin {
				p.Roles = append(p.Roles, auth.RoleAdmin)
			}
			token, err := auth.GenerateAccessToken(secret, p)
			if err != nil {
				return fmt.Errorf("generate token: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&secret, "jwt-secret", os.Getenv("JWT_SECRET"), "signing secret")
	cmd.Flags().StringVar(&p.Name, "name", "", "display name claim")
	cmd.Flags().StringVar(&p.Email, "email", "", "e-mail claim")
	cmd.Flags().BoolVar(&admin, "admin", false, "grant the admin role")
	return cmd
}
