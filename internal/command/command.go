// Package command loads canned prompt templates for the chat REPL.
//
// A command is a markdown file: /review in the chat expands
// commands/review.md and sends the result as the user turn. Files may
// open with a frontmatter block carrying a description:
//
//	---
//	description: Review the staged changes
//	---
//	Review the output of git diff --cached for $input.
//
// Templates reference their arguments as $input (everything after the
// command name) and $1..$n (whitespace-split fields). Unknown references
// pass through unchanged.
package command

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Command is one canned prompt.
type Command struct {
	Name        string
	Description string
	Template    string
	Source      string // file the command was loaded from
}

// Library is the set of commands visible to one chat: the global
// directory under ~/.codecrew plus the project's .codecrew/commands,
// the project winning on name clashes.
type Library struct {
	commands map[string]*Command
}

// Load reads both command directories. Missing directories and
// unparseable files are skipped silently; a chat must come up even when
// a template is broken.
func Load(globalDir, workDir string) *Library {
	l := &Library{commands: make(map[string]*Command)}
	l.loadDir(globalDir)
	if workDir != "" {
		l.loadDir(filepath.Join(workDir, ".codecrew", "commands"))
	}
	return l
}

func (l *Library) loadDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		cmd, err := parseFile(path)
		if err != nil || cmd.Template == "" {
			continue
		}
		cmd.Name = strings.TrimSuffix(entry.Name(), ".md")
		cmd.Source = path
		l.commands[cmd.Name] = cmd
	}
}

// parseFile splits an optional frontmatter block off the template body.
func parseFile(path string) (*Command, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cmd := &Command{}
	body := string(content)

	lines := strings.Split(body, "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) == "---" {
		for i := 1; i < len(lines); i++ {
			if strings.TrimSpace(lines[i]) == "---" {
				cmd.Template = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
				return cmd, nil
			}
			key, value, ok := strings.Cut(lines[i], ":")
			if !ok {
				continue
			}
			if strings.TrimSpace(key) == "description" {
				cmd.Description = strings.Trim(strings.TrimSpace(value), `"'`)
			}
		}
		// Unterminated frontmatter: treat the whole file as template.
	}

	cmd.Template = strings.TrimSpace(body)
	return cmd, nil
}

// Get returns a command by name.
func (l *Library) Get(name string) (*Command, bool) {
	cmd, ok := l.commands[name]
	return cmd, ok
}

// Names returns the command names sorted.
func (l *Library) Names() []string {
	names := make([]string, 0, len(l.commands))
	for name := range l.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of loaded commands.
func (l *Library) Len() int {
	return len(l.commands)
}

var argPattern = regexp.MustCompile(`\$(?:\{(\w+)\}|(\w+))`)

// Expand renders a command's template against the argument string.
func (l *Library) Expand(name, args string) (string, error) {
	cmd, ok := l.commands[name]
	if !ok {
		return "", fmt.Errorf("unknown command: /%s", name)
	}

	fields := strings.Fields(args)
	return argPattern.ReplaceAllStringFunc(cmd.Template, func(match string) string {
		key := strings.Trim(match[1:], "{}")
		if key == "input" {
			return strings.TrimSpace(args)
		}
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(fields) {
			return fields[n-1]
		}
		return match
	}), nil
}
