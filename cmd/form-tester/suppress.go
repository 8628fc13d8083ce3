package main

import (
	"fmt"

	"github.com/selvaggiesteban/form-tester/internal/config"
	"github.com/selvaggiesteban/form-tester/internal/database"
	"github.com/spf13/cobra"
)

// NewSuppressCmd creates the suppress command group.
func NewSuppressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suppress",
		Short: "Manage the email suppression list",
		Long: `Suppress manages the list of email addresses the fallback never
sends to. Addresses land here automatically after a hard bounce, and can
be added or removed manually.

Examples:
  # Show all suppressed addresses
  form-tester suppress list

  # Suppress an address manually
  form-tester suppress add dead@example.com

  # Remove an address so the fallback may send to it again
  form-tester suppress remove dead@example.com`,
	}

	cmd.PersistentFlags().String("db-dir", "",
		"Directory for the results database (default: XDG data directory)")

	cmd.AddCommand(newSuppressListCmd())
	cmd.AddCommand(newSuppressAddCmd())
	cmd.AddCommand(newSuppressRemoveCmd())

	return cmd
}

// openSuppressionDB opens the results database for a suppress subcommand.
func openSuppressionDB(cmd *cobra.Command) (*database.ResultDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// newSuppressListCmd creates the suppress list subcommand.
func newSuppressListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all suppressed email addresses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := openSuppressionDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			suppressions, err := db.ListSuppressions(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list suppressions: %w", err)
			}

			if len(suppressions) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Suppression list is empty.")
				return nil
			}

			for _, s := range suppressions {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					s.Email, s.Reason, s.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

// newSuppressAddCmd creates the suppress add subcommand.
func newSuppressAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <email>",
		Short: "Add an email address to the suppression list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openSuppressionDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.AddSuppression(cmd.Context(), args[0], "manual"); err != nil {
				return fmt.Errorf("failed to add suppression: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Suppressed: %s\n", args[0])
			return nil
		},
	}
}

// newSuppressRemoveCmd creates the suppress remove subcommand.
func newSuppressRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <email>",
		Short: "Remove an email address from the suppression list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openSuppressionDB(cmd)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.RemoveSuppression(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("failed to remove suppression: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Removed: %s\n", args[0])
			return nil
		},
	}
}
