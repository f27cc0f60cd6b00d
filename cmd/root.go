package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/campuson/campuson-cli/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "campuson",
	Short: "Diagnostic tests for CampusOn students",
	Long:  "CampusOn — terminal client for the CampusOn diagnostic test service: take a timed placement test and see your level.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runApp(cmd)
	},
}

func Execute() error {
	// Local .env is an optional convenience; absence is not an error.
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("api-url", "", "Test Service base URL (overrides CAMPUSON_API_URL)")
	rootCmd.PersistentFlags().String("db", "", "Path to the attempt history database (overrides CAMPUSON_DB)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfig builds the config from the environment, with flags taking
// priority over env vars.
func resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if u, _ := cmd.Flags().GetString("api-url"); u != "" {
		cfg.APIBaseURL = u
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		cfg.HistoryDBPath = p
	}
	return cfg, cfg.Validate()
}
