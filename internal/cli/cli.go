package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"storefront/internal/config"
	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/pkg/factory"
	"storefront/pkg/logger"
)

// openFactory builds the application graph with logs routed to stderr so
// command output stays clean.
var openFactory = func() (factory.Factory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return factory.NewFactoryWithConfig(cfg, logger.New(logger.LogLevel(cfg.LogLevel), os.Stderr))
}

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create storefront tables and seed subscription plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFactory()
			if err != nil {
				return err
			}
			defer f.Close()

			if err := database.NewMigrationService(f.GetDB(), f.GetLogger()).RunMigrations(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s migrations applied (%s)\n",
				color.New(color.FgHiGreen).Sprint("✓"), f.GetConnectionManager().Driver())
			return nil
		},
	}
}

// CrashLogsCmd returns the crashlogs command
func CrashLogsCmd() *cobra.Command {
	var page, pageSize int

	cmd := &cobra.Command{
		Use:   "crashlogs",
		Short: "List recorded service failures, newest first",
		Long: `List crash log entries written by audited service operations.

Examples:
  storefrontctl crashlogs
  storefrontctl crashlogs --page 2 --page-size 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFactory()
			if err != nil {
				return err
			}
			defer f.Close()

			logs, err := f.GetCrashLogService().GetCrashLogs(cmd.Context(), page, pageSize)
			if err != nil {
				return err
			}

			printCrashLogs(cmd.OutOrStdout(), logs)
			return nil
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&pageSize, "page-size", domain.StandardPageSize, "entries per page")

	return cmd
}

// HealthCmd returns the health command
func HealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the configured database and print pool statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openFactory()
			if err != nil {
				return err
			}
			defer f.Close()

			cm := f.GetConnectionManager()
			out := cmd.OutOrStdout()
			if err := cm.Ping(cmd.Context()); err != nil {
				fmt.Fprintf(out, "%s %s: %v\n", color.New(color.FgRed).Sprint("✗"), cm.Driver(), err)
				return err
			}

			fmt.Fprintf(out, "%s %s\n", color.New(color.FgHiGreen).Sprint("✓"), cm.Driver())
			for k, v := range cm.GetStats() {
				fmt.Fprintf(out, "  %-20s %v\n", k, v)
			}
			return nil
		},
	}
}

func printCrashLogs(w io.Writer, logs []*domain.Crashlog) {
	if len(logs) == 0 {
		fmt.Fprintln(w, "No crash logs recorded")
		return
	}

	for _, entry := range logs {
		fmt.Fprintf(w, "%s %s %s\n",
			color.New(color.FgYellow).Sprintf("#%d", entry.CrashLogID),
			entry.TimeStamp.UTC().Format("2006-01-02 15:04:05"),
			color.New(color.FgHiBlue).Sprintf("%s.%s", entry.ClassName, entry.MethodName))
		fmt.Fprintf(w, "  %s\n", color.New(color.FgRed).Sprint(entry.ErrorMessage))
		if entry.ErrorInner != "" && entry.ErrorInner != entry.ErrorMessage {
			fmt.Fprintf(w, "  inner: %s\n", entry.ErrorInner)
		}
		if entry.Data != "" {
			fmt.Fprintf(w, "  data:  %s\n", truncate(entry.Data, 120))
		}
	}
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
