package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flipswap/pkg/order"
)

var (
	statusWatch    bool
	statusSimulate bool
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the settlement status of the current order",
	Long: `Check the settlement status of the order stored in the local session.

Examples:
  flipswap status
  flipswap status --watch`,
	Run: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().BoolVar(&statusSimulate, "simulate-done", false, "Record a manual completion override for the current order")
	_ = statusCmd.Flags().MarkHidden("simulate-done")
}

func runStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	tracker := a.tracker(order.TrackerHooks{
		StatusUpdate: func(s order.StatusSnapshot) {
			if statusWatch && !jsonOutput {
				fmt.Printf("  [%s] %s (%s)\n",
					s.ObservedAt.Format("15:04:05"),
					getColoredStatus(s.RawStatus),
					s.Derived)
			}
		},
		Completed: func() {
			if !jsonOutput {
				color.Green("\n✓ Exchange completed and recorded!")
			}
		},
	})
	defer tracker.Teardown()

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking order status..."
		s.Start()
	}

	session, err := tracker.Resume(context.Background())
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if session == nil {
		printError(fmt.Errorf("no active order. Create one with: flipswap create"))
		os.Exit(1)
	}

	if statusSimulate {
		if err := tracker.SimulateCompletion(context.Background()); err != nil {
			printError(err)
			os.Exit(1)
		}
		printSuccess("Manual completion recorded.")
		return
	}

	if statusWatch && !jsonOutput {
		fmt.Printf("\nWatching order %s. Press Ctrl+C to stop.\n\n", color.CyanString(session.OrderID))
		watchUntilTerminal(tracker)
		return
	}

	// The resumed poller issued its first check; give it a moment
	tracker.ForceStatusCheck(context.Background())
	snapshot, ok := waitForSnapshot(tracker, 5*time.Second)
	if !ok {
		printError(fmt.Errorf("no status available yet; try again or use --watch"))
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(snapshot, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displaySnapshot(session, snapshot)
	}
}

// waitForSnapshot polls the tracker until a status observation lands
// or the deadline passes.
func waitForSnapshot(tracker *order.Tracker, timeout time.Duration) (order.StatusSnapshot, bool) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if snapshot, ok := tracker.Snapshot(); ok && !snapshot.ObservedAt.IsZero() {
			return snapshot, true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return order.StatusSnapshot{}, false
}

// watchUntilTerminal blocks until the tracked order reaches a state
// that stops active polling.
func watchUntilTerminal(tracker *order.Tracker) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		snapshot, ok := tracker.Snapshot()
		if !ok {
			return
		}
		switch snapshot.Derived {
		case order.DerivedCompleted, order.DerivedFailed, order.DerivedRefunded:
			return
		case order.DerivedExpired:
			// Leave a beat for reconciliation to override the read
			time.Sleep(order.DefaultReconcileTimeout)
			if snapshot, ok = tracker.Snapshot(); ok && snapshot.Derived == order.DerivedExpired {
				color.Yellow("\nOrder expired. If you already sent funds, use: flipswap emergency")
				return
			}
		}
	}
}

func displaySnapshot(session *order.OrderSession, snapshot order.StatusSnapshot) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     ORDER STATUS")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Order ID:      %s\n", color.CyanString(session.OrderID))
	fmt.Printf("  Pair:          %s -> %s\n", session.FromCurrency, session.ToCurrency)
	fmt.Printf("  Status:        %s (%s)\n", getColoredStatus(snapshot.RawStatus), snapshot.Derived)
	fmt.Printf("  Last Checked:  %s\n", snapshot.ObservedAt.Format("2006-01-02 15:04:05"))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func getColoredStatus(status order.RawStatus) string {
	switch status {
	case order.StatusDone:
		return color.GreenString(string(status))
	case order.StatusNew, order.StatusPending, order.StatusExchange, order.StatusWithdraw:
		return color.YellowString(string(status))
	case order.StatusExpired:
		return color.MagentaString(string(status))
	case order.StatusEmergency:
		return color.RedString(string(status))
	default:
		return string(status)
	}
}
