package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/mselser95/polymarket-hedge/internal/eventlog"
	"github.com/mselser95/polymarket-hedge/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show event-log totals and recent opportunities",
	Long: `Reads the engine's event log and prints aggregate counts plus the
most recent opportunities and incidents. Safe to run while the engine is up;
the log allows concurrent readers.`,
	RunE: runStats,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(statsCmd)
	statsCmd.Flags().IntP("limit", "l", 20, "Number of recent rows to show")
	statsCmd.Flags().StringP("db", "d", "", "Event log path (defaults to DB_PATH)")
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	limit, _ := cmd.Flags().GetInt("limit")
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		dbPath = cfg.DBPath
	}

	store, err := eventlog.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats()
	if err != nil {
		return fmt.Errorf("read stats: %w", err)
	}

	fmt.Printf("Event log: %s\n\n", dbPath)
	fmt.Printf("Scans:         %d\n", stats.TotalScans)
	fmt.Printf("Opportunities: %d (%d executed)\n", stats.TotalOpps, stats.TotalExecuted)
	fmt.Printf("Orders:        %d (%d errored)\n", stats.TotalOrders, stats.TotalErrors)
	fmt.Printf("Incidents:     %d\n\n", stats.TotalIncidents)

	opps, err := store.RecentOpportunities(limit)
	if err != nil {
		return fmt.Errorf("read opportunities: %w", err)
	}

	if len(opps) == 0 {
		fmt.Println("No opportunities recorded yet.")
	} else {
		fmt.Printf("Last %d opportunities:\n", len(opps))
		printOpportunityTable(opps)
	}

	incidents, err := store.RecentIncidents(limit)
	if err != nil {
		return fmt.Errorf("read incidents: %w", err)
	}

	if len(incidents) > 0 {
		fmt.Printf("\nLast %d incidents:\n", len(incidents))
		printIncidentTable(incidents)
	}

	return nil
}

func printOpportunityTable(opps []eventlog.OpportunityRow) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("When", "Scanner", "Name", "Cost", "Payout", "Net/$", "Exec")

	for _, opp := range opps {
		executed := ""
		if opp.Executed {
			executed = "yes"
		}

		table.Append(
			shortTS(opp.TS),
			opp.Scanner,
			truncateCell(opp.Name, 42),
			fmt.Sprintf("$%.4f", opp.TotalCost),
			fmt.Sprintf("$%.2f", opp.MinPayout),
			fmt.Sprintf("%+.4f", opp.NetProfitPerDollar),
			executed,
		)
	}

	table.Render()
}

func printIncidentTable(incidents []eventlog.IncidentRow) {
	table := tablewriter.NewWriter(os.Stdout)
	table.Header("When", "Type", "Details", "Kill reason")

	for _, inc := range incidents {
		table.Append(shortTS(inc.TS), inc.Type, truncateCell(inc.Details, 50), inc.KillReason)
	}

	table.Render()
}

// shortTS trims an RFC3339 timestamp to date and time.
func shortTS(ts string) string {
	if len(ts) >= 19 {
		return strings.Replace(ts[:19], "T", " ", 1)
	}

	return ts
}

func truncateCell(s string, max int) string {
	if len(s) <= max {
		return s
	}

	return s[:max-3] + "..."
}
