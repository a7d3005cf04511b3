package core

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates
var templateFS embed.FS

// Embedded document names under templates/.
const (
	tmplAgentContext    = "agent-context.md"
	tmplPlan            = "plan-template.md"
	tmplGitignore       = "gitignore"
	tmplWorkspace       = "workspace.md"
	tmplConstitution    = "constitution.md"
	tmplServiceProfiles = "service-profiles.md"
)

// GetTemplate returns the raw content of an embedded template by file name.
func GetTemplate(name string) (string, error) {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("reading template %s: %w", name, err)
	}
	return string(data), nil
}

// renderTemplate renders an embedded template with text/template.
func renderTemplate(name string, data any) ([]byte, error) {
	content, err := GetTemplate(name)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(name).Parse(content)
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// AgentContextDocument renders the orchestrator CLAUDE.md for version.
func AgentContextDocument(version, dirName string) ([]byte, error) {
	return renderTemplate(tmplAgentContext, struct {
		Version string
		DirName string
	}{version, dirName})
}
