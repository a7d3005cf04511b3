package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/term"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// statusOrder is the display order of the picker: active sessions first.
var statusOrder = []models.SessionStatus{
	models.SessionActive,
	models.SessionClosing,
	models.SessionClosed,
}

// stdinIsTerminal reports whether the picker may prompt. Tests replace it.
var stdinIsTerminal = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }

// sessionArg returns the session named in args, or lets the user pick one
// when none was given and stdin is a terminal.
func sessionArg(args []string, out io.Writer, exclude ...models.SessionStatus) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if !stdinIsTerminal() {
		return "", fmt.Errorf("session name required (run: ccw session list)")
	}
	return pickSession(os.Stdin, out, exclude...)
}

// pickSession lists the sessions not in exclude and reads a selection from
// in. It returns an error when there is nothing to pick or on cancel.
func pickSession(in io.Reader, out io.Writer, exclude ...models.SessionStatus) (string, error) {
	all, _, err := Sessions.List()
	if err != nil {
		return "", fmt.Errorf("listing sessions: %w", err)
	}
	skip := make(map[models.SessionStatus]bool, len(exclude))
	for _, s := range exclude {
		skip[s] = true
	}
	var sessions []models.Session
	for _, s := range all {
		if !skip[s.Status] {
			sessions = append(sessions, s)
		}
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("no sessions to choose from (sessions are created by the dispatch-feature skill)")
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		si, sj := statusIndex(sessions[i].Status), statusIndex(sessions[j].Status)
		if si != sj {
			return si < sj
		}
		return sessions[i].Name < sessions[j].Name
	})

	fmt.Fprintln(out)
	printHeading(out, "Sessions")
	for i, s := range sessions {
		fmt.Fprintf(out, "  %-3d %-24s %s  %s\n", i+1, s.Name, statusBadge(s.Status), dimStyle.Render(strings.Join(s.RepoNames(), ", ")))
	}
	fmt.Fprintln(out)

	reader := bufio.NewReader(in)
	for {
		fmt.Fprintf(out, "Select session [1-%d] (or 'q' to cancel): ", len(sessions))
		input, err := reader.ReadString('\n')
		if err != nil && input == "" {
			return "", fmt.Errorf("reading selection: %w", err)
		}
		input = strings.TrimSpace(input)
		if strings.EqualFold(input, "q") {
			return "", fmt.Errorf("cancelled")
		}
		n, convErr := strconv.Atoi(input)
		if convErr == nil && n >= 1 && n <= len(sessions) {
			return sessions[n-1].Name, nil
		}
		fmt.Fprintf(out, "  Invalid selection. Enter a number between 1 and %d.\n", len(sessions))
		if err != nil {
			return "", fmt.Errorf("reading selection: %w", err)
		}
	}
}

func statusIndex(s models.SessionStatus) int {
	for i, status := range statusOrder {
		if s == status {
			return i
		}
	}
	return len(statusOrder)
}
