package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"storefront/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "storefrontctl",
		Short: "Operator tooling for the storefront backend",
		Long: `storefrontctl runs schema migrations and inspects the crash log
against the database configured through the environment or a .env file.`,
	}

	rootCmd.AddCommand(cli.MigrateCmd())
	rootCmd.AddCommand(cli.CrashLogsCmd())
	rootCmd.AddCommand(cli.HealthCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
