package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/bot"
)

var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run a fixed number of trading ticks without the HTTP API",
	Long: `Run the decision engine for a number of ticks and print what it did.

Trading is switched on for the duration, so this is a quick way to watch
the rule cascade against the simulated market.

Example:
  trader tick --count 30
  trader tick -n 100 -c trader.yaml`,
	RunE: runTick,
}

var tickCount int

func init() {
	rootCmd.AddCommand(tickCmd)

	tickCmd.Flags().IntVarP(&tickCount, "count", "n", 25, "number of ticks to run")
}

func runTick(cmd *cobra.Command, args []string) error {
	if tickCount <= 0 {
		return fmt.Errorf("count must be positive, got %d", tickCount)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	a.bot.SetRunning(true)
	out := cmd.OutOrStdout()
	for i := 1; i <= tickCount; i++ {
		for _, r := range a.bot.Tick(cmd.Context()) {
			printResult(out, i, r)
		}
	}

	printStatus(out, a.bot.Status())
	return nil
}

func printResult(w io.Writer, tick int, r bot.SymbolResult) {
	switch {
	case r.Fill != nil:
		fmt.Fprintf(w, "[%3d] %-5s %s (%s)\n", tick, r.Symbol, r.Fill.Message, r.Decision.Reason())
	case r.Err != nil:
		fmt.Fprintf(w, "[%3d] %-5s error: %v\n", tick, r.Symbol, r.Err)
	}
}

func printStatus(w io.Writer, s bot.Status) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Balance:         $%.2f\n", s.Balance)
	fmt.Fprintf(w, "Portfolio value: $%.2f\n", s.PortfolioValue)
	fmt.Fprintf(w, "Total value:     $%.2f\n", s.TotalValue)
	if len(s.Portfolio) == 0 {
		return
	}
	fmt.Fprintln(w, "Holdings:")
	for _, sym := range sortedKeys(s.Portfolio) {
		fmt.Fprintf(w, "  %-5s %4d @ $%.2f\n", sym, s.Portfolio[sym], s.Prices[sym])
	}
}
