package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"flipswap/pkg/client"
)

var (
	filterNetwork string
	filterCode    string
)

var currenciesCmd = &cobra.Command{
	Use:     "list-currencies",
	Aliases: []string{"currencies", "ls"},
	Short:   "List all supported currencies",
	Long: `List the currencies the settlement engine supports.

Examples:
  flipswap list-currencies
  flipswap list-currencies --network TRX
  flipswap list-currencies --code USDT`,
	Run: runListCurrencies,
}

func init() {
	rootCmd.AddCommand(currenciesCmd)

	currenciesCmd.Flags().StringVar(&filterNetwork, "network", "", "Filter by network")
	currenciesCmd.Flags().StringVar(&filterCode, "code", "", "Filter by currency code")
}

func runListCurrencies(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	a, err := newApp()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer a.close()

	// Get currencies with spinner
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching supported currencies..."
		s.Start()
	}

	currencies, err := a.client.FetchCurrencies(context.Background())
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Apply filters
	filtered := currencies
	if filterNetwork != "" {
		var temp []client.Currency
		for _, c := range filtered {
			if strings.EqualFold(c.Network, filterNetwork) {
				temp = append(temp, c)
			}
		}
		filtered = temp
	}

	if filterCode != "" {
		var temp []client.Currency
		for _, c := range filtered {
			if strings.Contains(strings.ToUpper(c.Code), strings.ToUpper(filterCode)) {
				temp = append(temp, c)
			}
		}
		filtered = temp
	}

	// Output
	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayCurrencies(filtered)
	}
}

func displayCurrencies(currencies []client.Currency) {
	if len(currencies) == 0 {
		fmt.Println("\nNo currencies found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                      SUPPORTED CURRENCIES")
	fmt.Println(strings.Repeat("=", 70))

	// Group currencies by network
	byNetwork := make(map[string][]client.Currency)
	for _, c := range currencies {
		byNetwork[c.Network] = append(byNetwork[c.Network], c)
	}

	// Sort networks alphabetically
	networks := make([]string, 0, len(byNetwork))
	for network := range byNetwork {
		networks = append(networks, network)
	}
	sort.Strings(networks)

	for _, network := range networks {
		color.Cyan("\n%s", strings.ToUpper(network))
		fmt.Println(strings.Repeat("-", 70))

		entries := byNetwork[network]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Priority > entries[j].Priority })

		for _, c := range entries {
			var sides []string
			if c.CanSend() {
				sides = append(sides, "send")
			}
			if c.CanReceive() {
				sides = append(sides, "recv")
			}

			fmt.Printf("  %-10s  %-24s %s\n",
				color.YellowString(c.Code),
				c.Name,
				color.HiBlackString(strings.Join(sides, "+")))
		}
	}

	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Printf("\nTotal: %d currencies across %d networks\n\n", len(currencies), len(networks))
}
