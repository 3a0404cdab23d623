package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/veriseal/veriseal/config"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "veriseal",
	Short:   "Report upload and fingerprint verification server",
	Long: `Veriseal accepts report uploads, stores them in Backblaze B2, and
records a fingerprint for each file so it can be verified later, typically
by scanning a QR code that carries the fingerprint.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		var files []string
		if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
			files = append(files, configFile)
		}

		cfg, err := config.Load(files, cmd.Flags())
		if err != nil {
			return err
		}

		setupLogging(cfg)
		cmd.SetContext(config.WithContext(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config.yaml)")
	rootCmd.PersistentFlags().Int("port", 0, "HTTP server port (default: 8080, env: VERISEAL_SERVER_PORT)")
	rootCmd.PersistentFlags().String("registry-backend", "", "registry backend: file, sqlite, postgres (default: file, env: VERISEAL_REGISTRY_BACKEND)")
	rootCmd.PersistentFlags().String("registry-path", "", "registry JSON file path (default: reports.json, env: VERISEAL_REGISTRY_PATH)")
	rootCmd.PersistentFlags().String("db-dsn", "", "database connection string for sqlite/postgres backends (env: VERISEAL_REGISTRY_DSN)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
