package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/selvaggiesteban/form-tester/internal/config"
	"github.com/selvaggiesteban/form-tester/internal/tasks"
	"github.com/spf13/cobra"
)

//go:embed templates/form-tester.yaml
var configTemplate embed.FS

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and a sample domains file",
		Long: `Initialize creates a .form-tester configuration file and a sample
domains.csv in the current directory.

The generated configuration includes commented examples for per-site
settings (cookies, headers, page budgets, custom contact paths) and the
SMTP fallback. The sample domains file shows the expected CSV format:
one domain per row with an optional contact email.

Examples:
  # Create .form-tester and domains.csv in the current directory
  form-tester init

  # Create the config file at a specific path
  form-tester init -o myconfig.yaml

  # Force overwrite existing files
  form-tester init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().String("domains", "domains.csv",
		"Output file path for the sample domains file")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing files")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	domainsPath, err := cmd.Flags().GetString("domains")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if err := writeConfigFile(outputPath, force); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created configuration file: %s\n", outputPath)

	if force {
		_ = os.Remove(domainsPath) //nolint:errcheck // Recreated below
	}
	if err := tasks.CreateSampleFile(domainsPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created sample domains file: %s\n", domainsPath)

	fmt.Fprintln(cmd.OutOrStdout(), "\nEdit these files, then run:")
	fmt.Fprintf(cmd.OutOrStdout(), "  form-tester process --domains %s\n", domainsPath)

	return nil
}

// writeConfigFile writes the embedded configuration template to path.
func writeConfigFile(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", path)
		}
	}

	content, err := configTemplate.ReadFile("templates/form-tester.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	return nil
}
