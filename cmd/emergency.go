package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"flipswap/pkg/client"
	"flipswap/pkg/order"
)

var refundAddress string

var emergencyCmd = &cobra.Command{
	Use:   "emergency <exchange|refund>",
	Short: "Resolve a stuck order manually",
	Long: `Issue a manual action for an order the engine reports as EMERGENCY:
either exchange the deposited funds at the current rate, or refund them.
A follow-up status check is scheduled automatically.

Examples:
  flipswap emergency exchange
  flipswap emergency refund --refund-address <addr>`,
	Args: cobra.ExactArgs(1),
	Run:  runEmergency,
}

func init() {
	rootCmd.AddCommand(emergencyCmd)

	emergencyCmd.Flags().StringVar(&refundAddress, "refund-address", "", "Refund address (refund only)")
}

func runEmergency(cmd *cobra.Command, args []string) {
	var choice client.EmergencyChoice
	switch strings.ToLower(args[0]) {
	case "exchange":
		choice = client.EmergencyExchange
	case "refund":
		choice = client.EmergencyRefund
	default:
		printError(fmt.Errorf("unknown action %q: use exchange or refund", args[0]))
		os.Exit(1)
	}

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	tracker := a.tracker(order.TrackerHooks{})
	defer tracker.Teardown()

	session, err := tracker.Resume(context.Background())
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if session == nil {
		printError(fmt.Errorf("no active order"))
		os.Exit(1)
	}

	if err := tracker.PerformEmergency(context.Background(), choice, refundAddress); err != nil {
		printError(err)
		os.Exit(1)
	}

	printSuccess(fmt.Sprintf("Emergency %s accepted for order %s. A status check will follow shortly.",
		strings.ToLower(string(choice)), session.OrderID))
}
