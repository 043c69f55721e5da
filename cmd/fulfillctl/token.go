package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"phasegarden/internal/platform/admintoken"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an operator bearer token signed with ADMIN_JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			operator, _ := cmd.Flags().GetString("operator")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			token, err := issueToken(operator, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("operator", envOr("USER", "operator"), "operator recorded on audit events")
	cmd.Flags().Duration("ttl", admintoken.DefaultTTL, "token lifetime")
	return cmd
}

func issueToken(operator string, ttl time.Duration) (string, error) {
	tokens, err := admintoken.New(os.Getenv("ADMIN_JWT_SECRET"))
	if err != nil {
		return "", fmt.Errorf("ADMIN_JWT_SECRET: %w", err)
	}
	return tokens.Issue(operator, ttl)
}
