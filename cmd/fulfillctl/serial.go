package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"phasegarden/pkg/serial"
)

func serialCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serial",
		Short: "Generate or check license serials offline",
	}
	cmd.AddCommand(serialGenerateCmd(), serialValidateCmd())
	return cmd
}

func serialGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print new serials. They are not recorded anywhere.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("count")
			if n < 1 {
				return fmt.Errorf("count must be at least 1")
			}
			for range n {
				s, err := serial.Generate()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s.String())
			}
			return nil
		},
	}
	cmd.Flags().IntP("count", "n", 1, "number of serials")
	return cmd
}

func serialValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [serial]",
		Short: "Check a serial's checksum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := serial.Parse(args[0])
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid %s\n", s.String())
			return nil
		},
	}
}
