// Package assets embeds the canonical skills, rules, agents, hook scripts and
// templates installed by cc-workspace.
package assets

import (
	"embed"
	"io/fs"
)

//go:embed all:global-skills
var content embed.FS

// GlobalSkills returns the canonical source tree rooted at global-skills/.
func GlobalSkills() fs.FS {
	sub, err := fs.Sub(content, "global-skills")
	if err != nil {
		panic("assets: " + err.Error())
	}
	return sub
}
