package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmynk/sodarota/internal/config"
	"github.com/mmynk/sodarota/internal/models"
	"github.com/mmynk/sodarota/internal/rotation"
	"github.com/mmynk/sodarota/internal/service"
)

var (
	scheduleCount int
	scheduleFrom  string
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the upcoming purchase days",
	Long: `Print the next purchase days and who is responsible for each, using the
rotation stored in the configured backend. Today is never listed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		return runSchedule(cmd.Context(), cmd.OutOrStdout(), cfg)
	},
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().IntVarP(&scheduleCount, "count", "n", 0, "number of purchase days to list (default UPCOMING_COUNT)")
	scheduleCmd.Flags().StringVar(&scheduleFrom, "from", "", "list purchase days after this date (YYYY-MM-DD) instead of today")
}

func runSchedule(ctx context.Context, out io.Writer, cfg config.Config) error {
	n := scheduleCount
	if n <= 0 {
		n = cfg.UpcomingCount
	}

	now := time.Now
	if scheduleFrom != "" {
		from, err := rotation.ParseDateKey(scheduleFrom, cfg.Location)
		if err != nil {
			return fmt.Errorf("invalid --from date: %w", err)
		}
		now = func() time.Time { return from }
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.NewLedgerService(store, service.Config{Now: now, Location: cfg.Location})
	upcoming, err := svc.Upcoming(ctx, n)
	if err != nil {
		return err
	}
	return printSchedule(out, upcoming)
}

func printSchedule(out io.Writer, upcoming []models.Assignment) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tRESPONSIBLE")
	for _, a := range upcoming {
		person := a.Person
		if person == rotation.Nobody {
			person = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", a.Date, person)
	}
	return tw.Flush()
}
