package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flipswap",
	Short: "A CLI for cross-currency exchange orders",
	Long: `flipswap manages the lifecycle of a cross-currency exchange order:
fetch a time-bounded quote, create the order, watch its settlement,
and escalate stuck orders with manual exchange/refund actions.

Examples:
  flipswap create --from USDT --to BTC --amount 11 --address <btc-addr>
  flipswap status --watch
  flipswap emergency refund --refund-address <usdt-addr>
  flipswap list-currencies`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
