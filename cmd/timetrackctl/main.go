// Command timetrackctl is the operator CLI for the time tracking service:
// schema migrations and batch timesheet recalculation.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"example.com/timetracking/internal/config"
	"example.com/timetracking/internal/domain"
	"example.com/timetracking/internal/persistence/sqlstore"
)

var rootCmd = &cobra.Command{
	Use:   "timetrackctl",
	Short: "Operator CLI for the time tracking service",
}

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("service", "timetrackctl").Logger()

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(log)
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.MigrateUp(); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintln(os.Stdout, "migrations applied")
			return nil
		},
	}
	rootCmd.AddCommand(migrateCmd)

	var tenantID, employeeID, fromFlag, toFlag string
	recalcCmd := &cobra.Command{
		Use:   "recalc",
		Short: "Recalculate timesheet aggregates for an employee over a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tenantID == "" || employeeID == "" {
				return fmt.Errorf("--tenant and --employee required")
			}
			from, err := time.Parse("2006-01-02", fromFlag)
			if err != nil {
				return fmt.Errorf("invalid --from date: %w", err)
			}
			to, err := time.Parse("2006-01-02", toFlag)
			if err != nil {
				return fmt.Errorf("invalid --to date: %w", err)
			}

			store, err := openStore(log)
			if err != nil {
				return err
			}
			defer store.Close()

			timesheetRepo := sqlstore.NewTimesheetRepository(store)
			slotRepo := sqlstore.NewTimeSlotRepository(store)
			service := domain.NewTimesheetService(timesheetRepo, slotRepo, log)

			count, err := service.RecalculateRange(cmd.Context(), tenantID, employeeID, from, to)
			if err != nil {
				return fmt.Errorf("recalculated %d timesheets before failing: %w", count, err)
			}
			fmt.Fprintf(os.Stdout, "recalculated %d timesheets\n", count)
			return nil
		},
	}
	recalcCmd.Flags().StringVar(&tenantID, "tenant", "", "Tenant ID (required)")
	recalcCmd.Flags().StringVar(&employeeID, "employee", "", "Employee ID (required)")
	recalcCmd.Flags().StringVar(&fromFlag, "from", "", "Range start, YYYY-MM-DD (required)")
	recalcCmd.Flags().StringVar(&toFlag, "to", "", "Range end, YYYY-MM-DD (required)")
	_ = recalcCmd.MarkFlagRequired("tenant")
	_ = recalcCmd.MarkFlagRequired("employee")
	_ = recalcCmd.MarkFlagRequired("from")
	_ = recalcCmd.MarkFlagRequired("to")
	rootCmd.AddCommand(recalcCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(log zerolog.Logger) (*sqlstore.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return sqlstore.Open(cfg.DatabaseType, cfg.DatabaseDSN, log)
}
