// Package main provides the entry point for the form-tester CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for form-tester.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "form-tester",
		Short: "Automated contact form discovery and testing",
		Long: `form-tester crawls a list of domains looking for contact forms,
fills and submits them through a headless browser, and validates whether
the submission went through.

Forms protected by a CAPTCHA or carrying a honeypot field are skipped.
When no usable form is found, the tool can fall back to sending a direct
email to an address discovered on the site.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewProcessCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewSuppressCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
