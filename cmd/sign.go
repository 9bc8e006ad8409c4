package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"event-ticketing/config"
	"event-ticketing/internal/services/bank/razorpay"
)

// NewSignCallbackCommand prints the checkout signature for an order and
// payment id pair, for driving the verify endpoint against the sandbox gateway.
func NewSignCallbackCommand(cfg *config.Config) *cobra.Command {
	var orderID, paymentID string

	command := &cobra.Command{
		Use:   "sign-callback",
		Short: "Print the checkout callback signature for an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if orderID == "" || paymentID == "" {
				return errors.New("both --order and --payment are required")
			}
			if cfg.Gateway.KeySecret == "" {
				return errors.New("no gateway key secret configured")
			}

			fmt.Fprintln(cmd.OutOrStdout(), razorpay.SignPayment(orderID, paymentID, cfg.Gateway.KeySecret))
			return nil
		},
	}

	command.Flags().StringVar(&orderID, "order", "", "gateway order id")
	command.Flags().StringVar(&paymentID, "payment", "", "gateway payment id")

	return command
}
