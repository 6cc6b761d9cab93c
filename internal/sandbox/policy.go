// Package sandbox is the validation layer every tool call traverses: path
// jailing, command screening, URL screening, result truncation, per-request
// call budgets, and the append-only tool log.
package sandbox

import (
	"path/filepath"
	"regexp"
	"time"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

const (
	DefaultMaxRounds            = 10
	DefaultMaxToolCallsPerRound = 10
	DefaultBashTimeout          = 10 * time.Second
	MaxBashTimeout              = 120 * time.Second
	DefaultWebFetchTimeout      = 30 * time.Second
	MaxWebFetchTimeout          = 120 * time.Second
	DefaultMaxResultBytes       = 10240
)

// Policy holds the rules a Sandbox enforces. Construct with DefaultPolicy
// and override fields before the first use; a Policy must not change while
// tool calls are in flight.
type Policy struct {
	// ProjectRoot anchors relative paths and is the initial allowed prefix.
	ProjectRoot string

	// SafeMode additionally blocks network utilities, package installers,
	// and webfetch to non-standard ports.
	SafeMode bool

	MaxRounds            int
	MaxToolCallsPerRound int
	BashTimeout          time.Duration
	MaxResultBytes       int

	// AllowedPrefixes are the directory roots tools may touch, stored
	// canonicalized. Paths resolving outside every prefix are blocked.
	AllowedPrefixes []string

	blockedCommands []*regexp.Regexp
	safeModeBlocked []*regexp.Regexp
	blockedHosts    []*regexp.Regexp
}

// DefaultPolicy returns the standard policy jailed to projectRoot.
func DefaultPolicy(projectRoot string) *Policy {
	root := canonicalizeBestEffort(projectRoot)
	return &Policy{
		ProjectRoot:          root,
		MaxRounds:            DefaultMaxRounds,
		MaxToolCallsPerRound: DefaultMaxToolCallsPerRound,
		BashTimeout:          DefaultBashTimeout,
		MaxResultBytes:       DefaultMaxResultBytes,
		AllowedPrefixes:      []string{root},
		blockedCommands:      blockedCommandPatterns,
		safeModeBlocked:      safeModePatterns,
		blockedHosts:         blockedHostPatterns,
	}
}

// PolicyFromConfig builds a policy from the config's sandbox block. Zero
// fields keep their defaults.
func PolicyFromConfig(projectRoot string, cfg *types.SandboxConfig) *Policy {
	p := DefaultPolicy(projectRoot)
	if cfg == nil {
		return p
	}
	p.SafeMode = cfg.SafeMode
	if cfg.MaxRounds > 0 {
		p.MaxRounds = cfg.MaxRounds
	}
	if cfg.MaxToolCallsPerRound > 0 {
		p.MaxToolCallsPerRound = cfg.MaxToolCallsPerRound
	}
	if cfg.BashTimeoutSeconds > 0 {
		p.BashTimeout = time.Duration(cfg.BashTimeoutSeconds) * time.Second
		if p.BashTimeout > MaxBashTimeout {
			p.BashTimeout = MaxBashTimeout
		}
	}
	if cfg.MaxResultBytes > 0 {
		p.MaxResultBytes = cfg.MaxResultBytes
	}
	for _, dir := range cfg.AllowedPaths {
		p.AllowPrefix(dir)
	}
	return p
}

// AllowPrefix adds a directory root to the jail.
func (p *Policy) AllowPrefix(dir string) {
	p.AllowedPrefixes = append(p.AllowedPrefixes, canonicalizeBestEffort(dir))
}

// Ceiling is the hard per-request bound on tool invocations.
func (p *Policy) Ceiling() int {
	return p.MaxRounds * p.MaxToolCallsPerRound
}

func canonicalizeBestEffort(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// BlockedError reports a policy violation. It is not a failure: tool
// callers render it as a "Blocked: …" result string so the model can adapt.
type BlockedError struct {
	Reason string
}

func (e *BlockedError) Error() string {
	return "Blocked: " + e.Reason
}

// IsBlocked reports whether err is a sandbox policy violation.
func IsBlocked(err error) bool {
	_, ok := err.(*BlockedError)
	return ok
}
