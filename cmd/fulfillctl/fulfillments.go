package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"phasegarden/internal/entitlement"
	"phasegarden/internal/fulfillment/models"
	"phasegarden/internal/fulfillment/store"
	paymodels "phasegarden/internal/payment/models"
	"phasegarden/internal/platform/config"
	"phasegarden/internal/platform/postgres"
	strs "phasegarden/pkg/platform/strings"
)

func parseKey(provider, paymentID string) (paymodels.Key, error) {
	p, err := paymodels.ParseProvider(provider)
	if err != nil {
		return paymodels.Key{}, err
	}
	return paymodels.NewKey(p, paymentID)
}

func resendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resend [provider] [payment-id]",
		Short: "Resend the license email for a claimed payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0], args[1])
			if err != nil {
				return err
			}
			force, _ := cmd.Flags().GetBool("force")
			email, _ := cmd.Flags().GetString("email")
			operator, _ := cmd.Flags().GetString("operator")
			server, _ := cmd.Flags().GetString("server")

			token, err := issueToken(operator, time.Minute)
			if err != nil {
				return err
			}
			res, status, err := newAPIClient(server, token).Resend(cmd.Context(), key, resendBody{Force: force, Email: email})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s serial=%s delivery=%s\n", res.Provider, res.PaymentID, res.SerialNumber, res.DeliveryStatus)
			if status == http.StatusBadGateway {
				return fmt.Errorf("email send failed; the serial is unchanged")
			}
			return nil
		},
	}
	cmd.Flags().Bool("force", false, "send again even if already delivered")
	cmd.Flags().String("email", "", "payer address for a record claimed without one")
	cmd.Flags().String("operator", envOr("USER", "operator"), "operator recorded on audit events")
	return cmd
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status [provider] [payment-id]",
		Short: "Show the entitlement for a payment",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0], args[1])
			if err != nil {
				return err
			}
			server, _ := cmd.Flags().GetString("server")
			wait, _ := cmd.Flags().GetBool("wait")
			attempts, _ := cmd.Flags().GetInt("attempts")
			interval, _ := cmd.Flags().GetDuration("interval")
			full, _ := cmd.Flags().GetBool("full")

			var token string
			if full {
				operator, _ := cmd.Flags().GetString("operator")
				if token, err = issueToken(operator, time.Minute); err != nil {
					return err
				}
			}
			var source entitlement.Source = newAPIClient(server, token)
			var e *entitlement.Entitlement
			if wait {
				e, err = entitlement.NewPoller(source,
					entitlement.WithPollAttempts(attempts),
					entitlement.WithPollInterval(interval),
				).Wait(cmd.Context(), key)
			} else {
				e, err = source.Lookup(cmd.Context(), key)
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(e)
		},
	}
	cmd.Flags().Bool("wait", false, "poll until delivery is sent or failed")
	cmd.Flags().Int("attempts", entitlement.DefaultPollAttempts, "polls when --wait is set")
	cmd.Flags().Duration("interval", entitlement.DefaultPollInterval, "delay between polls")
	cmd.Flags().Bool("full", false, "read the admin record with email and unmasked serial")
	cmd.Flags().String("operator", envOr("USER", "operator"), "operator named on the admin token")
	return cmd
}

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List fulfillments by delivery status from DATABASE_URL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, _ := cmd.Flags().GetStringSlice("status")
			limit, _ := cmd.Flags().GetInt("limit")
			statuses, err := parseStatuses(raw)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseURL == "" {
				return fmt.Errorf("DATABASE_URL is required")
			}
			db, err := postgres.Open(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer db.Close()

			records, err := store.NewPostgres(db).ListByStatus(cmd.Context(), statuses, limit)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "PROVIDER\tPAYMENT\tSTATUS\tSERIAL\tEMAIL\tATTEMPTS\tCREATED\tLAST ERROR")
			for _, r := range records {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
					r.Key.Provider, r.Key.PaymentID, r.Status, r.Serial, r.PayerEmail,
					r.Attempts, r.CreatedAt.Format(time.RFC3339), r.LastError)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSlice("status", []string{string(models.DeliveryFailed)}, "pending, sent or failed")
	cmd.Flags().Int("limit", 50, "maximum rows; 0 lists all")
	return cmd
}

func parseStatuses(raw []string) ([]models.DeliveryStatus, error) {
	values := strs.CleanList(raw, true)
	out := make([]models.DeliveryStatus, 0, len(values))
	for _, v := range values {
		switch status := models.DeliveryStatus(v); status {
		case models.DeliveryPending, models.DeliverySent, models.DeliveryFailed:
			out = append(out, status)
		default:
			return nil, fmt.Errorf("unknown delivery status %q", v)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("at least one status is required")
	}
	return out, nil
}
