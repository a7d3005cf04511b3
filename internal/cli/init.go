package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/cc-workspace/internal/core"
	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

var initCmd = &cobra.Command{
	Use:   "init [path] [name]",
	Short: "Set up the orchestrator directory in a workspace",
	Long: `Install the global components if needed, then create the orchestrator
directory inside path (default: current directory) with hooks, settings,
templates and the project context documents, and scan the sibling
repositories into plans/service-profiles.md.

name defaults to the workspace directory name. It titles the service
profiles; workspace.md and constitution.md are copied unchanged from
templates/*.template.md when those exist, so name only reaches the built-in
fallbacks. Safe to re-run: existing workspace.md, constitution.md and
.gitignore are kept.`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if Sync == nil {
			return fmt.Errorf("synchronizer not initialized")
		}
		target := "."
		if len(args) > 0 {
			target = args[0]
		}
		name := ""
		if len(args) > 1 {
			name = args[1]
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, bannerStyle.Render("cc-workspace "+PackageVersion))
		fmt.Fprintln(out)

		global, err := Sync.InstallGlobal(false)
		if err != nil {
			return fmt.Errorf("installing global components: %w", err)
		}
		printGlobalResult(out, global)

		report, setupErr := Sync.SetupWorkspace(target, name)
		if report == nil {
			return fmt.Errorf("initializing workspace: %w", setupErr)
		}
		printScanReport(out, report)
		if setupErr != nil {
			return setupErr
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func printGlobalResult(w io.Writer, r *core.GlobalInstallResult) {
	if !r.Changed {
		fmt.Fprintf(w, "%s Global components %s already installed\n", okGlyph(true), r.Decision.Package)
		return
	}
	from := r.Decision.Installed
	if from == "" {
		from = "none"
	}
	fmt.Fprintf(w, "%s Global components %s -> %s (%d skills, %d rules, %d agents)\n",
		okGlyph(true), from, r.Decision.Package, r.Counts["skills"], r.Counts["rules"], r.Counts["agents"])
}

func printScanReport(w io.Writer, r *models.ScanReport) {
	root := filepath.Dir(r.OrchestratorDir)
	rel := func(p string) string {
		if rp, err := filepath.Rel(root, p); err == nil {
			return rp
		}
		return p
	}
	dirName := filepath.Base(r.OrchestratorDir)

	fmt.Fprintf(w, "%s Orchestrator %s/ (%d hooks)\n", okGlyph(true), rel(r.OrchestratorDir), r.Hooks)
	for _, c := range r.Changes {
		if c.Class != models.ArtifactScaffold || c.Action == models.ActionUnchanged {
			continue
		}
		if c.Action == models.ActionSkipped {
			fmt.Fprintf(w, "  %s %s %s\n", dimStyle.Render(glyphSkip), c.Path, dimStyle.Render("(exists, kept)"))
			continue
		}
		fmt.Fprintf(w, "  %s %s\n", okGlyph(true), c.Path)
	}

	fmt.Fprintln(w)
	if len(r.Repos) == 0 {
		printWarning(w, "no sibling repositories found next to "+dirName+"/")
	} else {
		printHeading(w, fmt.Sprintf("Repositories (%d)", len(r.Repos)))
		for _, repo := range r.Repos {
			branch := repo.Branch
			if branch == "" {
				branch = "-"
			}
			fmt.Fprintf(w, "  %s %-24s %-16s %s\n", okGlyph(repo.HasAgentContext), repo.Name, typeBadge(repo.Type), dimStyle.Render(branch))
		}
	}
	for _, name := range r.MissingContext {
		printWarning(w, name+" has no CLAUDE.md")
	}

	fmt.Fprintln(w)
	printHeading(w, "Next steps")
	fmt.Fprintf(w, "  cd %s/\n", rel(r.OrchestratorDir))
	fmt.Fprintln(w, "  claude --agent workspace-init   # fill in workspace.md and constitution.md")
	fmt.Fprintln(w, "  claude --agent team-lead        # plan and dispatch work")
	fmt.Fprintln(w, "  claude --agent e2e-validator    # optional end-to-end checks")
}
