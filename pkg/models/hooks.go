package models

import (
	"bytes"
	"encoding/json"
)

// HookCommand is a single command entry in the hook-registration document.
type HookCommand struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Timeout int    `json:"timeout"`
}

// HookMatcher groups the commands run for one optional tool matcher.
type HookMatcher struct {
	Matcher string        `json:"matcher,omitempty"`
	Hooks   []HookCommand `json:"hooks"`
}

// HookEvent is one lifecycle event with its ordered matchers.
type HookEvent struct {
	Name     string
	Matchers []HookMatcher
}

// HookRegistration maps lifecycle events to matchers. Events keep their
// declaration order when encoded, so the document is stable across runs.
type HookRegistration []HookEvent

// MarshalJSON encodes the registration as a JSON object in event order.
func (r HookRegistration) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ev := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ev.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		matchers := ev.Matchers
		if matchers == nil {
			matchers = []HookMatcher{}
		}
		val, err := json.Marshal(matchers)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Commands returns every command string in the registration, in order.
func (r HookRegistration) Commands() []string {
	var out []string
	for _, ev := range r {
		for _, m := range ev.Matchers {
			for _, h := range m.Hooks {
				out = append(out, h.Command)
			}
		}
	}
	return out
}

// Settings is the generated .claude/settings.json document.
type Settings struct {
	Env   map[string]string `json:"env"`
	Hooks HookRegistration  `json:"hooks"`
}
