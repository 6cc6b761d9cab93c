package sandbox

import (
	"fmt"
	"regexp"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// blockedCommandPatterns screen the raw command text. Matching any of them
// blocks the call regardless of mode.
var blockedCommandPatterns = compilePatterns([]string{
	// rm pointed at the filesystem root or the home directory
	`(?i)\brm\s+(?:-[a-zA-Z]+\s+)*(?:/|/\*|~|~/|\$HOME)(?:\s|$)`,
	// filesystem creation and raw writes to block devices
	`(?i)\bmkfs(\.[a-z0-9]+)?\b`,
	`(?i)\bdd\b[^|;&]*\bof=/dev/`,
	// machine state
	`(?i)\b(shutdown|reboot|poweroff|halt)\b`,
	// piping a download straight into a shell
	`(?i)\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?(ba|da|z|k)?sh\b`,
	// netcat listeners
	`(?i)\b(nc|ncat|netcat)\b[^|;&]*\s-[a-zA-Z]*l`,
	// permission changes on the filesystem root
	`(?i)\b(chmod|chown)\b[^|;&]*\s/(\s|$)`,
	// privilege escalation at any chain position; the parse-tree pass
	// below catches the same names inside substitutions
	`(?i)(^|[;&|]\s*)(sudo|su|doas)\b`,
})

// privilegedNames block as bare command names wherever they appear in the
// parse tree, which also catches chained invocations like "true && sudo rm".
var privilegedNames = map[string]bool{
	"sudo": true,
	"su":   true,
	"doas": true,
}

// safeModePatterns additionally screen the raw text when safe mode is on.
var safeModePatterns = compilePatterns([]string{
	`(?i)\b(curl|wget|nc|ncat|netcat|ssh|scp|sftp)\b`,
	`(?i)\b(npm|pnpm|yarn|pip3?|apt(-get)?|yum|dnf|brew)\s+(?:-\S+\s+)*(install|add)\b`,
})

// safeModeNetworkNames mirror the first safe-mode pattern for the
// parse-tree pass, so quoted mentions of a tool name don't false-positive.
var safeModeNetworkNames = map[string]bool{
	"curl": true, "wget": true, "nc": true, "ncat": true,
	"netcat": true, "ssh": true, "scp": true, "sftp": true,
}

var safeModeInstallers = map[string]bool{
	"npm": true, "pnpm": true, "yarn": true,
	"pip": true, "pip3": true,
	"apt": true, "apt-get": true, "yum": true, "dnf": true, "brew": true,
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(p))
	}
	return compiled
}

// CheckCommand screens a shell command against the deny rules. A non-nil
// return is always a *BlockedError; the command must not be executed.
func (p *Policy) CheckCommand(command string) error {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return &BlockedError{Reason: "empty command"}
	}

	for _, re := range p.blockedCommands {
		if re.MatchString(command) {
			return &BlockedError{Reason: fmt.Sprintf("command matches blocked pattern %s", re.String())}
		}
	}

	if p.SafeMode {
		for _, re := range p.safeModeBlocked {
			if re.MatchString(command) {
				return &BlockedError{Reason: "command uses a network utility or package installer, which safe mode forbids"}
			}
		}
	}

	commands, err := parseCommands(command)
	if err != nil {
		// The raw-text screens above are the authority; an unparseable
		// command only fails hard in safe mode.
		if p.SafeMode {
			return &BlockedError{Reason: "command could not be parsed, which safe mode forbids"}
		}
		return nil
	}

	for _, cmd := range commands {
		if privilegedNames[cmd.Name] {
			return &BlockedError{Reason: fmt.Sprintf("privileged invocation via %s", cmd.Name)}
		}
		if p.SafeMode {
			if safeModeNetworkNames[cmd.Name] {
				return &BlockedError{Reason: fmt.Sprintf("%s is not available in safe mode", cmd.Name)}
			}
			if safeModeInstallers[cmd.Name] && (cmd.Subcommand == "install" || cmd.Subcommand == "add") {
				return &BlockedError{Reason: fmt.Sprintf("%s %s is not available in safe mode", cmd.Name, cmd.Subcommand)}
			}
		}
	}

	return nil
}

// ShellCommand is one simple command found in a parsed shell line.
type ShellCommand struct {
	Name       string   // command name (e.g. "rm", "git")
	Args       []string // arguments
	Subcommand string   // first non-flag argument (e.g. "commit" in "git commit")
}

// parseCommands splits a shell line into its simple commands, descending
// into pipelines, lists, and substitutions.
func parseCommands(command string) ([]ShellCommand, error) {
	parser := syntax.NewParser(
		syntax.Variant(syntax.LangBash),
		syntax.KeepComments(false),
	)

	file, err := parser.Parse(strings.NewReader(command), "")
	if err != nil {
		return nil, fmt.Errorf("failed to parse command: %w", err)
	}

	var commands []ShellCommand
	syntax.Walk(file, func(node syntax.Node) bool {
		if call, ok := node.(*syntax.CallExpr); ok {
			if cmd := extractCommand(call); cmd != nil {
				commands = append(commands, *cmd)
			}
		}
		return true
	})

	return commands, nil
}

func extractCommand(call *syntax.CallExpr) *ShellCommand {
	if len(call.Args) == 0 {
		return nil
	}

	cmd := &ShellCommand{}
	cmd.Name = wordToString(call.Args[0])
	if cmd.Name == "" {
		return nil
	}

	for _, arg := range call.Args[1:] {
		argStr := wordToString(arg)
		cmd.Args = append(cmd.Args, argStr)

		if cmd.Subcommand == "" && !strings.HasPrefix(argStr, "-") {
			cmd.Subcommand = argStr
		}
	}

	return cmd
}

func wordToString(word *syntax.Word) string {
	var sb strings.Builder
	for _, part := range word.Parts {
		switch p := part.(type) {
		case *syntax.Lit:
			sb.WriteString(p.Value)
		case *syntax.SglQuoted:
			sb.WriteString(p.Value)
		case *syntax.DblQuoted:
			for _, qp := range p.Parts {
				if lit, ok := qp.(*syntax.Lit); ok {
					sb.WriteString(lit.Value)
				}
			}
		case *syntax.ParamExp:
			sb.WriteString("$" + p.Param.Value)
		case *syntax.CmdSubst:
			sb.WriteString("$()")
		}
	}
	return sb.String()
}
