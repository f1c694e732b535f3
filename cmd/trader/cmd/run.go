package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/papertrader/api"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading bot and its HTTP API",
	Long: `Start the periodic trading loop and serve the HTTP API until interrupted.

The bot starts stopped unless autostart is set; toggle it with
POST /api/toggle_bot.

Example:
  trader run -c trader.yaml
  TRADER_PORT=9000 trader run --autostart`,
	RunE: runRun,
}

var runAutostart bool

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runAutostart, "autostart", false, "start automated trading immediately")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if runAutostart {
		cfg.Autostart = true
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

	srv := api.New(a.bot, cfg.Server,
		api.WithLogger(log.With().Str("component", "api").Logger()),
		api.WithMetrics(a.metrics),
		api.WithGuards(a.guards...),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting trader on %s\n", cfg.Server.Addr())
	fmt.Printf("  Account: $%.2f %s\n", cfg.Account.Balance, cfg.Account.Currency)
	fmt.Printf("  Symbols: %v\n", a.bot.Symbols())
	fmt.Printf("  Journal: %s\n", cfg.Journal.Type)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := a.bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	fmt.Println("✓ Trader stopped")
	return nil
}
