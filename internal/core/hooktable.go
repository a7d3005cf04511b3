package core

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/valter-silva-au/cc-workspace/pkg/models"
)

// HookCommandPrefix is prepended to every hook script name in settings.json.
// The agent runtime expands CLAUDE_PROJECT_DIR to the orchestrator directory.
const HookCommandPrefix = "bash ${CLAUDE_PROJECT_DIR:-.}/.claude/hooks/"

// hookEntry is one row of the hook table.
type hookEntry struct {
	Event   string
	Matcher string
	Script  string
	Timeout int
	Since   string
	Until   string
}

// hookTable lists every hook registration ever shipped. Rows are emitted in
// this order, grouped by event in order of first appearance.
var hookTable = []hookEntry{
	{Event: "PreToolUse", Matcher: "Write|Edit|MultiEdit", Script: "block-orchestrator-writes.sh", Timeout: 5, Until: "4.1.4"},
	{Event: "PreToolUse", Matcher: "Teammate", Script: "validate-spawn-prompt.sh", Timeout: 5},
	{Event: "SessionStart", Script: "session-start-context.sh", Timeout: 10},
	{Event: "UserPromptSubmit", Script: "user-prompt-guard.sh", Timeout: 3},
	{Event: "SubagentStart", Script: "subagent-start-context.sh", Timeout: 5},
	{Event: "PermissionRequest", Script: "permission-auto-approve.sh", Timeout: 3},
	{Event: "PostToolUse", Matcher: "Write|Edit|MultiEdit", Script: "track-file-modifications.sh", Timeout: 3},
	{Event: "TeammateIdle", Script: "teammate-idle-check.sh", Timeout: 5},
	{Event: "TaskCompleted", Script: "task-completed-check.sh", Timeout: 3},
	{Event: "Notification", Script: "notify-user.sh", Timeout: 5},
	{Event: "WorktreeCreate", Script: "worktree-create-context.sh", Timeout: 5, Since: "4.2.0", Until: "4.3.0"},
}

// settingsEnv is the env block of settings.json.
var settingsEnv = map[string]string{
	"CLAUDE_CODE_EXPERIMENTAL_AGENT_TEAMS": "1",
	"CLAUDE_CODE_SUBAGENT_MODEL":           "sonnet",
}

// BuildHookRegistration returns the registration active at version.
// Events without an active row are omitted.
func BuildHookRegistration(version string) models.HookRegistration {
	var reg models.HookRegistration
	index := make(map[string]int)
	for _, e := range hookTable {
		if !versionInRange(version, e.Since, e.Until) {
			continue
		}
		i, ok := index[e.Event]
		if !ok {
			i = len(reg)
			index[e.Event] = i
			reg = append(reg, models.HookEvent{Name: e.Event})
		}
		reg[i].Matchers = append(reg[i].Matchers, models.HookMatcher{
			Matcher: e.Matcher,
			Hooks: []models.HookCommand{{
				Type:    "command",
				Command: HookCommandPrefix + e.Script,
				Timeout: e.Timeout,
			}},
		})
	}
	return reg
}

// HookScripts returns the script names registered at version.
func HookScripts(version string) []string {
	var out []string
	for _, cmd := range BuildHookRegistration(version).Commands() {
		if name, ok := ScriptFromCommand(cmd); ok {
			out = append(out, name)
		}
	}
	return out
}

// ScriptFromCommand extracts the script file name from a generated hook
// command. It returns false for commands that do not use the hooks prefix.
func ScriptFromCommand(command string) (string, bool) {
	name, ok := strings.CutPrefix(command, HookCommandPrefix)
	if !ok || name == "" || strings.ContainsAny(name, "/ ") {
		return "", false
	}
	return name, true
}

// GenerateSettings renders settings.json for version. The output is
// deterministic: the env map is encoded with sorted keys and the hook
// registration keeps table order.
func GenerateSettings(version string) ([]byte, error) {
	doc := models.Settings{
		Env:   settingsEnv,
		Hooks: BuildHookRegistration(version),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("generating settings: %w", err)
	}
	return append(data, '\n'), nil
}
