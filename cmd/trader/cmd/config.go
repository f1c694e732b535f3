package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long:  `Create and validate trader configuration files.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default configuration file",
	Long: `Create a default configuration file with sensible defaults.

The format follows the file extension: .json writes JSON, anything else YAML.

Example:
  trader config init -o trader.yaml`,
	RunE: runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file for errors.

Example:
  trader config validate -f trader.yaml`,
	RunE: runConfigValidate,
}

var (
	configOutput string
	configFile   string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configOutput, "output", "o", "trader.yaml", "output file path")

	configValidateCmd.Flags().StringVarP(&configFile, "file", "f", "", "config file to validate")
	configValidateCmd.MarkFlagRequired("file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(configOutput); err == nil {
		return fmt.Errorf("file already exists: %s", configOutput)
	}

	cfg := config.Default()
	if err := cfg.SaveToFile(configOutput); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	fmt.Printf("✓ Created default configuration: %s\n", configOutput)
	fmt.Println("\nEdit this file to customize your trading bot.")
	fmt.Printf("Then run: trader run -c %s\n", configOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(configFile)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Printf("✓ Configuration is valid: %s\n", configFile)
	fmt.Printf("\nAccount:   $%.2f %s\n", cfg.Account.Balance, cfg.Account.Currency)
	fmt.Printf("Symbols:   %d\n", len(cfg.Symbols))
	fmt.Printf("Interval:  %s\n", cfg.Bot.Interval)
	fmt.Printf("Risk:      %.0f%% of balance, %.0f%% of portfolio\n",
		cfg.Bot.Risk.BalanceFraction*100, cfg.Bot.Risk.PortfolioFraction*100)
	fmt.Printf("Journal:   %s\n", cfg.Journal.Type)
	fmt.Printf("Listen:    %s\n", cfg.Server.Addr())
	return nil
}
