package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/cc-workspace/internal/core"
)

var updateForce bool

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Update global components and the local workspace",
	Long: `Install the global skills, rules and agents when the installed version is
older than this build (or always with --force), then refresh the generated
artifacts of the workspace found in the current directory: hooks,
settings.json, CLAUDE.md, templates and the plan template. When the installed
version is current nothing is touched, locally or globally.

Scaffold documents such as workspace.md and constitution.md, plans and
session records are never modified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}
		out := cmd.OutOrStdout()

		global, err := Sync.InstallGlobal(updateForce)
		if err != nil {
			return fmt.Errorf("installing global components: %w", err)
		}

		// The version gate covers the workspace too: a current install leaves
		// hand edits to generated files alone until --force.
		if !global.Decision.Run {
			fmt.Fprintln(out, "Already up to date. Use --force to reinstall.")
			return nil
		}

		local, err := Sync.SyncLocal(WorkDir)
		if err != nil {
			return fmt.Errorf("updating workspace: %w", err)
		}

		printGlobalResult(out, global)
		if local == nil {
			fmt.Fprintf(out, "%s No %s/ here, local workspace not updated\n", dimStyle.Render(glyphSkip), OrchestratorName)
			return nil
		}
		printLocalResult(out, local)
		if err := local.Err(); err != nil {
			return fmt.Errorf("updating workspace: %d artifact(s) failed: %w", len(local.Failures), err)
		}
		return nil
	},
}

func init() {
	updateCmd.Flags().BoolVar(&updateForce, "force", false, "Reinstall even when the installed version is current")
	rootCmd.AddCommand(updateCmd)
}

func printLocalResult(w io.Writer, r *core.LocalSyncResult) {
	changed := 0
	for _, c := range r.Changes {
		if !c.Changed() {
			continue
		}
		changed++
		fmt.Fprintf(w, "  %s %-8s %s\n", okGlyph(true), c.Action, c.Path)
	}
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  %s %s: %v\n", failStyle.Render(glyphFail), f.Path, f.Err)
	}
	fmt.Fprintf(w, "%s Workspace %s synced to %s (%d hooks, %d templates, %d changed)\n",
		okGlyph(len(r.Failures) == 0), r.OrchestratorDir, r.Version, r.Hooks, r.Templates, changed)
}
