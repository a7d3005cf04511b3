package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/valter-silva-au/cc-workspace/internal/core"
)

// confirmModel is a single y/N question. Anything but y declines.
type confirmModel struct {
	question string
	answer   bool
	done     bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "y", "Y":
		m.answer = true
		m.done = true
		return m, tea.Quit
	case "n", "N", "enter", "esc", "q", "ctrl+c":
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		answer := "no"
		if m.answer {
			answer = "yes"
		}
		return fmt.Sprintf("%s %s\n", m.question, dimStyle.Render(answer))
	}
	return fmt.Sprintf("%s %s ", m.question, dimStyle.Render("[y/N]"))
}

// terminalConfirmer asks on the terminal with a bubbletea prompt, or reads
// answers line by line when stdin is not a terminal.
type terminalConfirmer struct {
	in     io.Reader
	out    io.Writer
	tty    bool
	reader *bufio.Reader
}

func newTerminalConfirmer() *terminalConfirmer {
	return &terminalConfirmer{
		in:  os.Stdin,
		out: os.Stdout,
		tty: term.IsTerminal(int(os.Stdin.Fd())),
	}
}

// newLineConfirmer reads answers from r, one per line.
func newLineConfirmer(r io.Reader, w io.Writer) *terminalConfirmer {
	return &terminalConfirmer{in: r, out: w}
}

func (c *terminalConfirmer) Confirm(question string) bool {
	if c.tty {
		p := tea.NewProgram(confirmModel{question: question}, tea.WithInput(c.in), tea.WithOutput(c.out))
		final, err := p.Run()
		if err != nil {
			return false
		}
		m, ok := final.(confirmModel)
		return ok && m.answer
	}
	if c.reader == nil {
		c.reader = bufio.NewReader(c.in)
	}
	fmt.Fprintf(c.out, "%s [y/N] ", question)
	line, err := c.reader.ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(c.out)
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

// closePrinter renders close steps as they complete.
type closePrinter struct {
	w io.Writer
}

func (p closePrinter) Report(a core.ActionResult) {
	switch a.Kind {
	case core.ActionWarnUnpushed:
		printWarning(p.w, fmt.Sprintf("%s: %s", a.Repo, a.Warning))
	case core.ActionPullRequest:
		switch {
		case !a.Accepted:
			fmt.Fprintf(p.w, "  %s %s: PR skipped\n", dimStyle.Render(glyphSkip), a.Repo)
		case a.Err != nil:
			fmt.Fprintf(p.w, "  %s %s: PR failed: %v\n", failStyle.Render(glyphFail), a.Repo, a.Err)
		default:
			fmt.Fprintf(p.w, "  %s %s: PR created %s\n", okStyle.Render(glyphOK), a.Repo, a.Detail)
		}
	case core.ActionDeleteBranch:
		switch {
		case !a.Accepted:
			fmt.Fprintf(p.w, "  %s %s: kept branch %s\n", dimStyle.Render(glyphSkip), a.Repo, a.Target)
		case a.Err != nil:
			fmt.Fprintf(p.w, "  %s %s: deleting %s failed: %v\n", failStyle.Render(glyphFail), a.Repo, a.Target, a.Err)
		default:
			fmt.Fprintf(p.w, "  %s %s: deleted branch %s\n", okStyle.Render(glyphOK), a.Repo, a.Target)
		}
	case core.ActionRecord:
		if a.Detail == "deleted" {
			fmt.Fprintf(p.w, "  %s deleted %s\n", okStyle.Render(glyphOK), a.Target)
		} else {
			fmt.Fprintf(p.w, "  %s kept %s (status closed)\n", okStyle.Render(glyphOK), a.Target)
		}
	}
}
