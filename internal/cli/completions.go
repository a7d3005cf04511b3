package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// completeSessionNames returns a completion function listing session names
// with their status, leaving out the given statuses. Only the first
// argument is completed.
func completeSessionNames(excludeStatuses ...models.SessionStatus) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if Sessions == nil || len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		sessions, _, err := Sessions.List()
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		exclude := make(map[models.SessionStatus]bool)
		for _, s := range excludeStatuses {
			exclude[s] = true
		}

		var names []string
		for _, s := range sessions {
			if exclude[s.Status] || !strings.HasPrefix(s.Name, toComplete) {
				continue
			}
			names = append(names, s.Name+"\t"+string(s.Status)+", "+strings.Join(s.RepoNames(), " "))
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	}
}

// completeShells completes the shell argument of the completion command.
func completeShells(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return []string{
		"bash\tBash 4+ with bash-completion",
		"zsh\tZsh",
		"fish\tFish",
		"powershell\tPowerShell",
	}, cobra.ShellCompDirectiveNoFileComp
}
