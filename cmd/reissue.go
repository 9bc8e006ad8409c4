package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"event-ticketing/internal/services"
)

// TicketReissuer mints and delivers a new ticket for an existing registration.
type TicketReissuer interface {
	ReissueTicket(ctx context.Context, registrationID string) (*services.FinalizeResult, error)
}

// NewReissueTicketCommand issues a fresh ticket for a paid registration whose
// first issuance or delivery failed.
func NewReissueTicketCommand(build func() (TicketReissuer, error)) *cobra.Command {
	var registrationID string

	command := &cobra.Command{
		Use:   "reissue-ticket",
		Short: "Issue and deliver a new ticket for a paid registration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if registrationID == "" {
				return errors.New("--registration is required")
			}

			reissuer, err := build()
			if err != nil {
				return err
			}

			res, err := reissuer.ReissueTicket(cmd.Context(), registrationID)
			if err != nil {
				return fmt.Errorf("reissue %s: %w", registrationID, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "registration %s: ticket valid until %s\n",
				res.RegistrationID, res.Ticket.ExpiresAt.UTC().Format(time.RFC3339))
			if res.DispatchErr != nil {
				fmt.Fprintf(out, "delivery incomplete: %v\n", res.DispatchErr)
			}
			return nil
		},
	}

	command.Flags().StringVar(&registrationID, "registration", "", "registration id")

	return command
}
