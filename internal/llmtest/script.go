package llmtest

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Script is the full behavior description of a scripted backend.
type Script struct {
	Settings  Settings   `yaml:"settings"`
	Defaults  Defaults   `yaml:"defaults"`
	Responses []Rule     `yaml:"responses"`
	ToolRules []ToolRule `yaml:"tool_rules"`
}

// Settings tunes server behavior.
type Settings struct {
	// LagMS delays every response, for timeout and cancellation tests.
	LagMS int `yaml:"lag_ms"`
}

// Defaults covers requests no rule matches.
type Defaults struct {
	Fallback string `yaml:"fallback"`
	Usage    Usage  `yaml:"usage"`
}

// Usage is the token accounting attached to a reply.
type Usage struct {
	Input  int `yaml:"input"`
	Output int `yaml:"output"`
}

// Match decides whether a rule applies to a prompt. Exactly one field
// should be set; Exact wins over the contains variants, Regex is checked
// last.
type Match struct {
	Contains    string   `yaml:"contains"`
	ContainsAll []string `yaml:"contains_all"`
	ContainsAny []string `yaml:"contains_any"`
	Exact       string   `yaml:"exact"`
	Regex       string   `yaml:"regex"`
}

// Rule maps a prompt pattern to a text reply.
type Rule struct {
	Name     string `yaml:"name"`
	Match    Match  `yaml:"match"`
	Response string `yaml:"response"`
	Usage    *Usage `yaml:"usage"`
	Priority int    `yaml:"priority"`
}

// ToolRule maps a prompt pattern to a tool call, optionally with text
// alongside it.
type ToolRule struct {
	Name      string         `yaml:"name"`
	Match     Match          `yaml:"match"`
	Tool      string         `yaml:"tool"`
	ID        string         `yaml:"id"`
	Arguments map[string]any `yaml:"arguments"`
	Response  string         `yaml:"response"`
	Usage     *Usage         `yaml:"usage"`
	Priority  int            `yaml:"priority"`
}

// Load reads and validates a script from a YAML file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse reads and validates a script from YAML bytes.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("llmtest script: %w", err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.normalize()
	return &s, nil
}

// NewScript validates and normalizes a script built in code.
func NewScript(s Script) (*Script, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	s.normalize()
	return &s, nil
}

func (s *Script) validate() error {
	check := func(kind, name, pattern string) error {
		if pattern == "" {
			return nil
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("llmtest script: %s rule %q: bad regex: %w", kind, name, err)
		}
		return nil
	}
	for _, r := range s.Responses {
		if err := check("response", r.Name, r.Match.Regex); err != nil {
			return err
		}
	}
	for _, r := range s.ToolRules {
		if err := check("tool", r.Name, r.Match.Regex); err != nil {
			return err
		}
		if r.Tool == "" {
			return fmt.Errorf("llmtest script: tool rule %q names no tool", r.Name)
		}
	}
	return nil
}

// normalize sorts rules by descending priority and fills the default
// fallback and usage.
func (s *Script) normalize() {
	sort.SliceStable(s.Responses, func(i, j int) bool { return s.Responses[i].Priority > s.Responses[j].Priority })
	sort.SliceStable(s.ToolRules, func(i, j int) bool { return s.ToolRules[i].Priority > s.ToolRules[j].Priority })
	if s.Defaults.Fallback == "" {
		s.Defaults.Fallback = "Understood."
	}
	if s.Defaults.Usage == (Usage{}) {
		s.Defaults.Usage = Usage{Input: 10, Output: 5}
	}
}

// Matches reports whether the prompt satisfies the matcher. An empty
// matcher matches everything.
func (m Match) Matches(prompt string) bool {
	lower := strings.ToLower(prompt)

	if m.Exact != "" {
		return strings.EqualFold(prompt, m.Exact)
	}
	if m.Contains != "" {
		return strings.Contains(lower, strings.ToLower(m.Contains))
	}
	if len(m.ContainsAll) > 0 {
		for _, s := range m.ContainsAll {
			if !strings.Contains(lower, strings.ToLower(s)) {
				return false
			}
		}
		return true
	}
	if len(m.ContainsAny) > 0 {
		for _, s := range m.ContainsAny {
			if strings.Contains(lower, strings.ToLower(s)) {
				return true
			}
		}
		return false
	}
	if m.Regex != "" {
		ok, err := regexp.MatchString(m.Regex, prompt)
		return err == nil && ok
	}
	return true
}

// pickTool returns the highest-priority matching tool rule, or nil.
func (s *Script) pickTool(prompt string) *ToolRule {
	for i := range s.ToolRules {
		if s.ToolRules[i].Match.Matches(prompt) {
			return &s.ToolRules[i]
		}
	}
	return nil
}

// pickResponse returns the highest-priority matching response rule, or
// nil.
func (s *Script) pickResponse(prompt string) *Rule {
	for i := range s.Responses {
		if s.Responses[i].Match.Matches(prompt) {
			return &s.Responses[i]
		}
	}
	return nil
}

// usageOr resolves a rule's usage override against the script default.
func (s *Script) usageOr(u *Usage) Usage {
	if u != nil {
		return *u
	}
	return s.Defaults.Usage
}
