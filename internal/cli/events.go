package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/cc-workspace/internal/observability"
)

var (
	eventsJSON  bool
	eventsType  string
	eventsSince string
	eventsLimit int
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Show recent syncs and session actions from the event log",
	Long: `Show entries of the event log kept in ~/.claude: global installs, workspace
syncs, workspace setup and every pull request, branch deletion and record
change made while closing sessions.

Filter by type (e.g. sync.global, or session.* for every session event)
and by age with --since (e.g. 7d, 24h).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not available")
		}
		filter := observability.EventFilter{Type: eventsType, Limit: eventsLimit}
		if eventsSince != "" {
			since, err := parseSinceDuration(eventsSince)
			if err != nil {
				return fmt.Errorf("parsing --since: %w", err)
			}
			filter.Since = &since
		}
		events, err := EventLog.Read(filter)
		if err != nil {
			return fmt.Errorf("reading event log: %w", err)
		}

		out := cmd.OutOrStdout()
		if eventsJSON {
			if events == nil {
				events = []observability.Event{}
			}
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}
		if len(events) == 0 {
			fmt.Fprintln(out, "No events recorded.")
			return nil
		}
		for _, e := range events {
			printEvent(out, e)
		}
		return nil
	},
}

func init() {
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "Only events of this type (a trailing .* matches a prefix)")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "Only events newer than this (e.g. 7d, 24h)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 20, "Show at most this many of the newest events (0 for all)")
	_ = eventsCmd.RegisterFlagCompletionFunc("type", completeEventTypes)
	rootCmd.AddCommand(eventsCmd)
}

func printEvent(w io.Writer, e observability.Event) {
	level := dimStyle.Render(fmt.Sprintf("%-4s", e.Level))
	if e.Level == "WARN" || e.Level == "ERROR" {
		level = warnStyle.Render(fmt.Sprintf("%-4s", e.Level))
	}
	keys := make([]string, 0, len(e.Data))
	for k := range e.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var fields []string
	for _, k := range keys {
		fields = append(fields, fmt.Sprintf("%s=%v", k, e.Data[k]))
	}
	fmt.Fprintf(w, "%s %s %-24s %s\n", dimStyle.Render(e.Time.Local().Format("2006-01-02 15:04:05")), level, e.Type, strings.Join(fields, " "))
}

// parseSinceDuration parses a duration such as "7d" or "24h" and returns
// that point in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -n), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return time.Time{}, fmt.Errorf("unsupported duration %q (use e.g. 7d, 24h, 90m)", s)
	}
	return now.Add(-d), nil
}

// completeEventTypes lists the event types ccw writes.
func completeEventTypes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return []string{
		"sync.global\tGlobal components installed",
		"sync.local\tWorkspace artifacts refreshed",
		"workspace.init\tOrchestrator set up",
		"session.pr_created\tPull request opened on close",
		"session.pr_failed\tPull request failed on close",
		"session.branch_deleted\tSession branch deleted",
		"session.branch_failed\tSession branch deletion failed",
		"session.closed\tRecord kept as closed",
		"session.deleted\tRecord deleted",
	}, cobra.ShellCompDirectiveNoFileComp
}
