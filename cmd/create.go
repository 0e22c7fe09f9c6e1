package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
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
	createFrom    string
	createTo      string
	createAmount  string
	createAddress string
	createType    string
	createYes     bool
	createWatch   bool
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a cross-currency exchange order",
	Long: `Fetch a quote for the requested pair, validate the amount against the
quote bounds, and create the order. The quote is valid for 120 seconds;
a lapsed quote is refreshed and the submission must be repeated.

Examples:
  flipswap create --from USDT --to BTC --amount 11 --address bc1q...
  flipswap create --from BTC --to XMR --amount 0.05 --address 4AdUn... --type float --watch`,
	Run: runCreate,
}

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createFrom, "from", "", "Currency to send (REQUIRED)")
	createCmd.Flags().StringVar(&createTo, "to", "", "Currency to receive (REQUIRED)")
	createCmd.Flags().StringVar(&createAmount, "amount", "", "Amount to send (REQUIRED)")
	createCmd.Flags().StringVar(&createAddress, "address", "", "Destination address (REQUIRED)")
	createCmd.Flags().StringVar(&createType, "type", "fixed", "Order type: fixed or float")
	createCmd.Flags().BoolVarP(&createYes, "yes", "y", false, "Skip confirmation prompt")
	createCmd.Flags().BoolVarP(&createWatch, "watch", "w", false, "Watch settlement after creating")
}

func runCreate(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	tracker := a.tracker(order.TrackerHooks{
		StatusUpdate: func(s order.StatusSnapshot) {
			if createWatch && !jsonOutput {
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

	// Get quote with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	quote, err := tracker.CalculateQuote(context.Background(),
		createFrom, createTo, createAmount, order.OrderType(createType))
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if quote == nil {
		printError(fmt.Errorf("specify --from, --to and a positive --amount"))
		os.Exit(1)
	}

	if !jsonOutput {
		displayQuote(quote)
	}

	switch check := tracker.ValidateAmount(createAmount); check {
	case order.AmountOK:
	default:
		printError(fmt.Errorf("amount %s is %s (allowed range %s - %s %s)",
			createAmount, check, quote.MinAmount, quote.MaxAmount, quote.FromCurrency))
		os.Exit(1)
	}

	// Ask for confirmation
	if !createYes && !jsonOutput {
		if !confirm("Proceed with exchange? (y/N): ") {
			fmt.Println("\nOrder cancelled.")
			os.Exit(0)
		}
	}

	session, err := tracker.CreateOrder(context.Background(), order.CreateParams{
		FromCurrency:       createFrom,
		ToCurrency:         createTo,
		Amount:             createAmount,
		DestinationAddress: createAddress,
		OrderType:          order.OrderType(createType),
	})
	if err != nil {
		var orderErr *order.OrderError
		if errors.As(err, &orderErr) {
			// Business decline: show the engine's code and message verbatim
			printError(fmt.Errorf("engine declined order (code %d): %s", orderErr.Code, orderErr.Msg))
			os.Exit(1)
		}
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(session, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayDepositInstructions(session)
	}

	if createWatch && !jsonOutput {
		fmt.Println("Watching settlement. Press Ctrl+C to stop.")
		watchUntilTerminal(tracker)
	} else if !jsonOutput {
		fmt.Println("You can monitor the order using:")
		color.Cyan("  flipswap status --watch\n")
	}
}

func displayQuote(q *order.Quote) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                    EXCHANGE QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Send:        %s %s\n", q.SendAmount, color.YellowString(q.FromCurrency))
	fmt.Printf("  Receive:     ~%s %s\n", q.ReceiveAmount, color.YellowString(q.ToCurrency))
	fmt.Printf("  Rate:        %s\n", q.Rate)
	fmt.Printf("  Limits:      %s - %s %s\n", q.MinAmount, q.MaxAmount, q.FromCurrency)
	fmt.Printf("  Valid for:   %s seconds\n", order.FormatRemaining(q.Remaining(time.Now())))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displayDepositInstructions(session *order.OrderSession) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Yellow("                 DEPOSIT INSTRUCTIONS")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Order ID:  %s\n", color.CyanString(session.OrderID))
	fmt.Printf("\nTo complete the exchange, send %s %s to:\n\n", session.SendAmount, session.FromCurrency)
	color.Cyan("  %s\n", session.DepositAddress)

	if session.DepositTag != "" {
		fmt.Printf("\nTag/Memo (REQUIRED): %s\n", color.MagentaString(session.DepositTag))
	}

	fmt.Printf("\nDeposit window closes at %s.\n", session.ExpiresAt.Format("2006-01-02 15:04:05"))
	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func confirm(prompt string) bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\n" + prompt)

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
