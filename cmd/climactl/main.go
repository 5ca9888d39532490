// climactl is the operational CLI: health checks, retention cleanup and
// manual notification runs against the same database as the server.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"climascope.app/app"
	"climascope.app/config"
	"climascope.app/service"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "climactl",
		Short:         "Operational commands for the weather notification service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(healthCmd())
	root.AddCommand(cleanupCmd())
	root.AddCommand(sendAlertsCmd())
	root.AddCommand(sendSummariesCmd())

	return root
}

// withApp loads configuration, assembles the service graph, runs the command
// body and tears everything down.
func withApp(fn func(*app.Application) error) error {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	application, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer application.Close()

	return fn(application)
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func healthCmd() *cobra.Command {
	var testCity string
	var testEmail string

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Probe the database, weather provider, image lookup and email settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				if testCity != "" {
					snapshot, err := a.Weather.Current(testCity)
					if err != nil {
						return fmt.Errorf("weather lookup for %s failed: %w", testCity, err)
					}
					fmt.Printf("Weather lookup OK: %s %.1f°C, %s\n",
						snapshot.City, snapshot.Temperature, snapshot.Description)
				}

				if testEmail != "" {
					if err := a.Email.SendTest(testEmail); err != nil {
						return fmt.Errorf("test email to %s failed: %w", testEmail, err)
					}
					fmt.Printf("Test email sent to %s\n", testEmail)
				}

				report := a.Health.Check()
				if err := printJSON(report); err != nil {
					return err
				}
				if !report.Healthy {
					return fmt.Errorf("one or more components are unhealthy")
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&testCity, "test-city", "", "also run a live weather lookup for this city")
	cmd.Flags().StringVar(&testEmail, "test-email", "", "also send a test email to this address")
	return cmd
}

func cleanupCmd() *cobra.Command {
	var opts service.CleanupOptions

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune aged history, alerts, notifications and stale forecasts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				report, err := a.Cleanup.Run(opts)
				if report != nil {
					if printErr := printJSON(report); printErr != nil {
						return printErr
					}
					if opts.DryRun {
						fmt.Printf("Dry run: %d rows would be removed\n", report.Total())
					} else {
						fmt.Printf("Removed %d rows\n", report.Total())
					}
				}
				return err
			})
		},
	}

	cmd.Flags().IntVar(&opts.HistoryDays, "history-days", 0, "override history retention in days")
	cmd.Flags().IntVar(&opts.AlertsDays, "alerts-days", 0, "override alert retention in days")
	cmd.Flags().IntVar(&opts.NotificationsDays, "notifications-days", 0, "override notification retention in days")
	cmd.Flags().IntVar(&opts.ForecastHours, "forecast-hours", 0, "override forecast staleness in hours")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "count rows without deleting them")
	return cmd
}

func sendAlertsCmd() *cobra.Command {
	var userID uint
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "send-alerts",
		Short: "Run an alert sweep now, for all eligible users or one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				var result *service.SweepResult
				var err error
				if userID != 0 {
					result, err = a.Alerts.RunForUser(userID, dryRun)
				} else {
					result, err = a.Alerts.RunSweep(dryRun)
				}
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "restrict the sweep to one user id")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "evaluate conditions without persisting or sending")
	return cmd
}

func sendSummariesCmd() *cobra.Command {
	var userID uint
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "send-summaries",
		Short: "Send the daily summary now, for all eligible users or one user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app.Application) error {
				var result *service.SummaryResult
				var err error
				if userID != 0 {
					result, err = a.Summaries.RunForUser(userID, dryRun)
				} else {
					result, err = a.Summaries.RunDaily(dryRun)
				}
				if err != nil {
					return err
				}
				return printJSON(result)
			})
		},
	}

	cmd.Flags().UintVar(&userID, "user", 0, "restrict the run to one user id")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "evaluate without sending")
	return cmd
}
