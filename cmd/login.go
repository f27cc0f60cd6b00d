package cmd

import (
	"bufio"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/campuson/campuson-cli/internal/auth"
	"github.com/campuson/campuson-cli/internal/testsvc"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		username, _ := cmd.Flags().GetString("username")
		reader := bufio.NewReader(cmd.InOrStdin())

		if username == "" {
			fmt.Fprint(cmd.OutOrStdout(), "Student ID: ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return fmt.Errorf("read student id: %w", err)
			}
			username = strings.TrimSpace(line)
		}
		if username == "" {
			return fmt.Errorf("student id is required")
		}

		fmt.Fprint(cmd.OutOrStdout(), "Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read password: %w", err)
		}
		password := strings.TrimRight(line, "\r\n")
		if password == "" {
			return fmt.Errorf("password is required")
		}

		creds := auth.NewStore(cfg.CredentialsPath)
		client := testsvc.NewClient(cfg.APIBaseURL, cfg.RequestTimeout, creds)

		resp, err := client.Login(cmd.Context(), username, password)
		if err != nil {
			return fmt.Errorf("login: %w", err)
		}

		if err := creds.Save(auth.Credentials{
			Token:    resp.Token,
			Username: resp.Username,
			SavedAt:  time.Now(),
		}); err != nil {
			return fmt.Errorf("store credentials: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", resp.Username)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored access token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := auth.NewStore(cfg.CredentialsPath).Clear(); err != nil {
			return fmt.Errorf("clear credentials: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

func init() {
	loginCmd.Flags().StringP("username", "u", "", "Student ID")
}
