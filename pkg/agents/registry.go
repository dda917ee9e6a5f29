// Package agents models the fixed set of coding agents that skillbox can
// install skills for. Each agent optionally exposes a global skills directory
// under the user home; agents without one only receive canonical-storage
// installs.
package agents

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// AgentType identifies a supported coding agent
type AgentType string

// Supported agent types
const (
	ClaudeCode AgentType = "claude-code"
	Codex      AgentType = "codex"
	Cursor     AgentType = "cursor"
	Copilot    AgentType = "copilot"
)

// Agent describes one entry of the registry
type Agent struct {
	Type        AgentType
	DisplayName string
	// SkillsDir is the absolute path of the agent's global skills directory,
	// or empty if the agent has none.
	SkillsDir string
}

// HasSkillsDir reports whether the agent exposes a global skills directory
func (a Agent) HasSkillsDir() bool {
	return a.SkillsDir != ""
}

// skillsSubdirs maps each agent type to its global skills directory relative
// to the user home. Copilot reads skills through its host editor and has no
// directory of its own.
var skillsSubdirs = map[AgentType]string{
	ClaudeCode: filepath.Join(".claude", "skills"),
	Codex:      filepath.Join(".codex", "skills"),
	Cursor:     filepath.Join(".cursor", "skills"),
	Copilot:    "",
}

var displayNames = map[AgentType]string{
	ClaudeCode: "Claude Code",
	Codex:      "Codex",
	Cursor:     "Cursor",
	Copilot:    "GitHub Copilot",
}

// All returns every registered agent in stable order
func All() []Agent {
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}

	types := make([]AgentType, 0, len(skillsSubdirs))
	for t := range skillsSubdirs {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	result := make([]Agent, 0, len(types))
	for _, t := range types {
		result = append(result, build(t, home))
	}
	return result
}

// Get returns the agent for the given type
func Get(t AgentType) (Agent, bool) {
	if _, ok := skillsSubdirs[t]; !ok {
		return Agent{}, false
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = ""
	}
	return build(t, home), true
}

func build(t AgentType, home string) Agent {
	a := Agent{
		Type:        t,
		DisplayName: displayNames[t],
	}
	if sub := skillsSubdirs[t]; sub != "" && home != "" {
		a.SkillsDir = filepath.Join(home, sub)
	}
	return a
}

// ParseList resolves a list of agent type names. An empty input yields the
// full registry.
func ParseList(names []string) ([]Agent, error) {
	if len(names) == 0 {
		return All(), nil
	}

	result := make([]Agent, 0, len(names))
	for _, name := range names {
		agent, ok := Get(AgentType(strings.TrimSpace(name)))
		if !ok {
			return nil, errors.Errorf("unknown agent type %q (supported: %s)", name, supportedList())
		}
		result = append(result, agent)
	}
	return result, nil
}

func supportedList() string {
	all := All()
	names := make([]string, 0, len(all))
	for _, a := range all {
		names = append(names, string(a.Type))
	}
	return strings.Join(names, ", ")
}
