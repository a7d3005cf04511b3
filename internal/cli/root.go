package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets the version information injected via ldflags.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

// verbose is bound to --verbose. The logger level is chosen during app
// wiring, before flags are parsed, so app.go inspects the raw arguments.
var verbose bool

var rootCmd = &cobra.Command{
	Use:   "ccw",
	Short: "cc-workspace - multi-repo orchestration for Claude Code agent teams",
	Long: `cc-workspace (ccw) sets up and maintains an orchestrator directory next to
your service repositories: agent skills, rules and hooks, project context
documents, and the session records used to run parallel work across repos.

Run "ccw init" once at the workspace root, "ccw update" after upgrading,
and "ccw session" to inspect or close work sessions.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ccw %s (components %s)\ncommit: %s\nbuilt:  %s\n", appVersion, PackageVersion, appCommit, appDate)
		if Versions == nil {
			return
		}
		installed := Versions.Read()
		switch {
		case installed == "":
			fmt.Fprintln(out, warnStyle.Render("global components not installed (run: ccw update)"))
		case installed != PackageVersion:
			fmt.Fprintf(out, "%s\n", warnStyle.Render(fmt.Sprintf("installed components: %s (run: ccw update)", installed)))
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging on stderr")
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
