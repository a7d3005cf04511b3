package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

var completionInstall bool

// shellCompletion describes how to generate and where to install the
// completion script of one shell.
type shellCompletion struct {
	gen func(w io.Writer) error
	// load is the one-liner that loads completions in the current session.
	load string
	// target is the install path relative to the home directory; empty
	// when --install is not supported.
	target string
	notes  []string
}

var shellCompletions = map[string]shellCompletion{
	"bash": {
		gen:    func(w io.Writer) error { return rootCmd.GenBashCompletionV2(w, true) },
		load:   `eval "$(ccw completion bash)"`,
		target: filepath.Join(".local", "share", "bash-completion", "completions", "ccw"),
		notes:  []string{"Restart your shell to load them."},
	},
	"zsh": {
		gen:    func(w io.Writer) error { return rootCmd.GenZshCompletion(w) },
		load:   `eval "$(ccw completion zsh)"`,
		target: filepath.Join(".local", "share", "zsh", "site-functions", "_ccw"),
		notes: []string{
			"Ensure the directory is in your fpath, e.g. in ~/.zshrc:",
			"  fpath=(~/.local/share/zsh/site-functions $fpath)",
			"  autoload -Uz compinit && compinit",
		},
	},
	"fish": {
		gen:    func(w io.Writer) error { return rootCmd.GenFishCompletion(w, true) },
		load:   "ccw completion fish | source",
		target: filepath.Join(".config", "fish", "completions", "ccw.fish"),
		notes:  []string{"New fish sessions pick them up automatically."},
	},
	"powershell": {
		gen:  func(w io.Writer) error { return rootCmd.GenPowerShellCompletionWithDesc(w) },
		load: "ccw completion powershell | Out-String | Invoke-Expression",
	},
}

var completionCmd = &cobra.Command{
	Use:   "completion <shell>",
	Short: "Set up shell completions for ccw",
	Long: `Set up tab-completion for ccw commands, flags and session names.

Supported shells: bash, zsh, fish, powershell

Quick install:

  ccw completion bash --install
  ccw completion zsh --install
  ccw completion fish --install

Or print the script to stdout for manual setup:

  ccw completion <shell>`,
	ValidArgsFunction: completeShells,
	Args:              cobra.MaximumNArgs(1),
	RunE:              runCompletion,
}

func init() {
	completionCmd.Flags().BoolVar(&completionInstall, "install", false, "Install completions under your home directory")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(completionCmd)
}

func runCompletion(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}
	shell, ok := shellCompletions[args[0]]
	if !ok {
		return fmt.Errorf("unsupported shell %q (supported: %s)", args[0], supportedShells())
	}
	if completionInstall {
		return installCompletion(cmd.OutOrStdout(), args[0], shell)
	}
	// Hints go to stderr so the script can be piped.
	fmt.Fprintf(cmd.ErrOrStderr(), "# To load completions in this session:\n#   %s\n", shell.load)
	return shell.gen(cmd.OutOrStdout())
}

func installCompletion(out io.Writer, name string, shell shellCompletion) error {
	if shell.target == "" {
		return fmt.Errorf("automatic install is not supported for %s; add the output of 'ccw completion %s' to your profile", name, name)
	}
	home := HomeDir
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return fmt.Errorf("detecting home directory: %w", err)
		}
	}
	target := filepath.Join(home, shell.target)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("creating completion directory: %w", err)
	}
	if err := writeCompletionFile(target, shell.gen); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s %s completions installed to %s\n", okGlyph(true), name, target)
	for _, line := range shell.notes {
		fmt.Fprintln(out, line)
	}
	return nil
}

// writeCompletionFile writes the generated script to target and reports
// close errors.
func writeCompletionFile(target string, gen func(io.Writer) error) error {
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("creating completion file %s: %w", target, err)
	}
	writeErr := gen(f)
	closeErr := f.Close()
	if writeErr != nil {
		return writeErr
	}
	if closeErr != nil {
		return fmt.Errorf("closing completion file %s: %w", target, closeErr)
	}
	return nil
}

func supportedShells() string {
	names := make([]string, 0, len(shellCompletions))
	for name := range shellCompletions {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
