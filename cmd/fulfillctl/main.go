// Command fulfillctl is the operator CLI for license fulfillment: serial
// tooling, admin tokens, resends and entitlement checks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var Version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "fulfillctl",
		Short:         "PhaseGarden license fulfillment operator tool",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("server", envOr("PHASEGARDEN_SERVER", "http://localhost:8080"), "backend base URL")

	rootCmd.AddCommand(serialCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(resendCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(listCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
