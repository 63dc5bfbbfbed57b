// Package main is the docpage command: it downloads documentation pages and
// turns documents with linked images into self-contained flat ODF and PDF.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	cfgPkg "github.com/xhad/docpage/pkg/config"
)

var version = "dev"

var (
	configPath string
	cfg        *cfgPkg.Config
)

var rootCmd = &cobra.Command{
	Use:   "docpage",
	Short: "Fetch documentation pages and embed their images",
	Long: "docpage downloads documentation pages through their node API, renders the page body " +
		"as standalone HTML and converts documents with linked images into flat ODF text or PDF " +
		"with every image embedded.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and installs the default logger.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = cfgPkg.LoadConfig(configPath)
	if err != nil {
		return err
	}

	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	applyFlagOverrides(cmd)

	if errs := cfg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "config: %v\n", e)
		}
		return fmt.Errorf("invalid configuration (%d errors)", len(errs))
	}

	level, _ := cfg.LogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}
