package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/campuson/campuson-cli/internal/app"
	"github.com/campuson/campuson-cli/internal/auth"
	"github.com/campuson/campuson-cli/internal/config"
	"github.com/campuson/campuson-cli/internal/history"
	"github.com/campuson/campuson-cli/internal/testsvc"
)

// runApp builds the dependencies and launches the TUI.
func runApp(cmd *cobra.Command) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	creds := auth.NewStore(cfg.CredentialsPath)
	client := testsvc.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, creds)

	departments, err := config.LoadDepartments(cfg.DepartmentsPath)
	if err != nil {
		return fmt.Errorf("load departments: %w", err)
	}

	opts := app.Options{
		Service:     client,
		Creds:       creds,
		Departments: departments,
	}

	// Local history is optional: the tests still run without it.
	attempts, err := history.Open(cfg.HistoryDBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "History unavailable:", err)
	} else {
		defer attempts.Close()
		opts.Attempts = attempts
	}

	return app.Run(opts)
}
