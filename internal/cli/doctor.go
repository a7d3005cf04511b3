package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/cc-workspace/internal/core"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose the global install and the current workspace",
	Long: `Check the installed component version, the global skills, rules and
agents, required tools, and when run inside a workspace, its directories,
configuration state and hook registration. Failing checks print the
command that fixes them.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if DoctorSvc == nil {
			return fmt.Errorf("doctor not initialized")
		}
		out := cmd.OutOrStdout()
		report := DoctorSvc.Run(WorkDir)

		printHeading(out, "Global")
		printChecks(out, report.Global)
		fmt.Fprintln(out)
		if report.OrchestratorDir == "" {
			fmt.Fprintf(out, "%s No %s/ found here, skipping workspace checks\n", dimStyle.Render(glyphSkip), OrchestratorName)
		} else {
			printHeading(out, "Workspace "+report.OrchestratorDir)
			printChecks(out, report.Local)
		}
		fmt.Fprintln(out)

		if n := report.Failed(); n > 0 {
			fmt.Fprintf(out, "%s %d issue(s) found\n", failStyle.Render(glyphFail), n)
		} else {
			fmt.Fprintf(out, "%s All checks passed\n", okStyle.Render(glyphOK))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func printChecks(w io.Writer, checks []core.Check) {
	for _, c := range checks {
		switch {
		case c.Info:
			fmt.Fprintf(w, "  %s %s: %s\n", dimStyle.Render(glyphSkip), c.Name, c.Detail)
		case c.OK:
			fmt.Fprintf(w, "  %s %s\n", okGlyph(true), c.Name)
		default:
			line := fmt.Sprintf("  %s %s", okGlyph(false), c.Name)
			if c.Detail != "" {
				line += ": " + c.Detail
			}
			if c.Fix != "" {
				line += dimStyle.Render(" (fix: " + c.Fix + ")")
			}
			fmt.Fprintln(w, line)
		}
	}
}
