package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/cc-workspace/internal/core"
	"github.com/valter-silva-au/cc-workspace/internal/storage"
	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Inspect and close work sessions",
	Long: `Commands for the session records kept in the orchestrator's .sessions/
directory. Sessions are created by the dispatch-feature skill; ccw lists
them, shows their progress per repository and closes them.`,
}

var sessionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sessions with their status and repositories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSessions(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		sessions, corrupt, err := Sessions.List()
		if err != nil {
			return fmt.Errorf("listing sessions: %w", err)
		}
		for _, name := range corrupt {
			printWarning(out, fmt.Sprintf("skipping unreadable session record .sessions/%s.json", name))
		}
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}
		for _, s := range sessions {
			printSessionSummary(out, s)
		}
		return nil
	},
}

var sessionStatusCmd = &cobra.Command{
	Use:   "status [name]",
	Short: "Show a session's branches and commits per repository",
	Long: `Show each repository bound to the session with its branch pair and the
commits on the session branch that are not yet on the source branch.

Without a name, pick from a list when stdin is a terminal.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeSessionNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSessions(); err != nil {
			return err
		}
		name, err := sessionArg(args, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		detail, err := Sessions.Status(cmdContext(cmd), name)
		if err != nil {
			return sessionError(name, err)
		}
		printSessionDetail(cmd.OutOrStdout(), detail)
		return nil
	},
}

var sessionCloseCmd = &cobra.Command{
	Use:   "close [name]",
	Short: "Open PRs, delete session branches and retire the record",
	Long: `Close a session in three confirmed phases:

  1. offer a pull request from each session branch into its source branch
  2. offer to delete each session branch, warning about unpushed commits
  3. offer to delete the session record; declining keeps it as closed

Every step asks first. A failure in one repository is reported and the
remaining repositories are still processed. Without a name, pick from the
sessions that are not closed yet.`,
	Args:              cobra.MaximumNArgs(1),
	ValidArgsFunction: completeSessionNames(models.SessionClosed),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSessions(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		name, err := sessionArg(args, out, models.SessionClosed)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmdContext(cmd), os.Interrupt)
		defer stop()

		printHeading(out, "Closing session "+name)
		result, err := Sessions.Close(ctx, name, NewConfirmer(), closePrinter{w: out})
		if err != nil {
			return sessionError(name, err)
		}
		if n := result.Failed(); n > 0 {
			fmt.Fprintf(out, "\nSession %s %s with %d failed step(s).\n", result.Session, result.Outcome, n)
			return nil
		}
		fmt.Fprintf(out, "\nSession %s %s.\n", result.Session, result.Outcome)
		return nil
	},
}

func init() {
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionStatusCmd)
	sessionCmd.AddCommand(sessionCloseCmd)
	rootCmd.AddCommand(sessionCmd)
}

// cmdContext returns the command's context, which is nil when RunE is
// called directly.
func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func requireSessions() error {
	if Sessions == nil {
		return fmt.Errorf("no %s/ found: run from the workspace root or %s/", OrchestratorName, OrchestratorName)
	}
	return nil
}

// sessionError turns store errors into one-line diagnostics with the
// remedial command where there is one.
func sessionError(name string, err error) error {
	switch {
	case errors.Is(err, storage.ErrSessionNotFound):
		return fmt.Errorf("session %q not found (run: ccw session list)", name)
	case errors.Is(err, storage.ErrSessionCorrupt):
		return fmt.Errorf("session %q cannot be read: %w", name, err)
	case errors.Is(err, storage.ErrInvalidSessionName):
		return fmt.Errorf("invalid session name %q (run: ccw session list)", name)
	}
	return err
}

func printSessionSummary(w io.Writer, s models.Session) {
	created := s.Created
	if t := s.CreatedTime(); !t.IsZero() {
		created = t.Local().Format("2006-01-02 15:04")
	}
	fmt.Fprintf(w, "%s %s  %s  %d repo(s)\n",
		headingStyle.Render(s.Name), statusBadge(s.Status), dimStyle.Render(created), len(s.Repos))
	for _, repo := range s.RepoNames() {
		b := s.Repos[repo]
		fmt.Fprintf(w, "  %s %-20s %s\n", okGlyph(b.BranchCreated), repo, b.SessionBranch)
	}
}

func printSessionDetail(w io.Writer, d *models.SessionDetail) {
	printSessionSummary(w, d.Session)
	for _, r := range d.Repos {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s  %s -> %s\n", headingStyle.Render(r.Name), r.Binding.SessionBranch, r.Binding.SourceBranch)
		switch {
		case r.CommitsErr != nil:
			msg := "could not read commits"
			if errors.Is(r.CommitsErr, core.ErrRepoMissing) {
				msg += " (repository not found at " + r.AbsPath + ")"
			}
			fmt.Fprintf(w, "  %s %s\n", failStyle.Render(glyphFail), msg)
		case !r.Binding.BranchCreated:
			fmt.Fprintf(w, "  %s\n", dimStyle.Render("branch not created"))
		case len(r.Commits) == 0:
			fmt.Fprintf(w, "  %s\n", dimStyle.Render("(no commits yet)"))
		default:
			for _, c := range r.Commits {
				sha, subject, _ := strings.Cut(c, " ")
				fmt.Fprintf(w, "  %s %s\n", warnStyle.Render(sha), subject)
			}
		}
	}
}
