package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/codecrew-ai/codecrew/internal/sandbox"
)

const bashDescription = `Executes a shell command and returns its combined stdout and stderr.

Usage:
- The command runs through the system shell with -c, inside the project sandbox
- Destructive commands (rm on root or home, mkfs, dd to devices, shutdown, pipe-to-shell downloads, privileged invocations) are blocked
- Optional workdir must stay inside the allowed directories
- Optional timeout is in seconds (default 10, max 120); on timeout the output so far is returned with a timed-out note`

// sigkillDelay is how long CombinedOutput waits for pipes to drain after the
// process group is killed.
const sigkillDelay = 2 * time.Second

// BashTool runs shell commands under the sandbox policy.
type BashTool struct {
	policy *sandbox.Policy
	shell  string
}

// BashInput is the input for the bash tool.
type BashInput struct {
	Command string `json:"command"`
	Workdir string `json:"workdir,omitempty"`
	Timeout int    `json:"timeout,omitempty"`
}

// NewBashTool creates a bash tool bound to a sandbox policy.
func NewBashTool(policy *sandbox.Policy) *BashTool {
	return &BashTool{
		policy: policy,
		shell:  detectShell(),
	}
}

// detectShell finds the shell interpreter to use.
func detectShell() string {
	if runtime.GOOS == "windows" {
		return "cmd"
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	if _, err := os.Stat("/bin/bash"); err == nil {
		return "/bin/bash"
	}
	return "sh"
}

func (t *BashTool) ID() string          { return "bash" }
func (t *BashTool) Description() string { return bashDescription }

func (t *BashTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"command": {
				"type": "string",
				"description": "The shell command to execute"
			},
			"workdir": {
				"type": "string",
				"description": "Working directory for the command (default: project root)"
			},
			"timeout": {
				"type": "integer",
				"description": "Optional timeout in seconds (max 120)"
			}
		},
		"required": ["command"]
	}`)
}

func (t *BashTool) Execute(ctx context.Context, input json.RawMessage, toolCtx *Context) (*Result, error) {
	var params BashInput
	if err := json.Unmarshal(input, &params); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if err := t.policy.CheckCommand(params.Command); err != nil {
		return nil, err
	}

	workDir, err := t.resolveWorkdir(params.Workdir, toolCtx)
	if err != nil {
		return nil, err
	}

	timeout := t.policy.BashTimeout
	if params.Timeout > 0 {
		timeout = time.Duration(params.Timeout) * time.Second
		if timeout > sandbox.MaxBashTimeout {
			timeout = sandbox.MaxBashTimeout
		}
	}

	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.CommandContext(cmdCtx, t.shell, "/c", params.Command)
	} else {
		cmd = exec.CommandContext(cmdCtx, t.shell, "-c", params.Command)
	}
	cmd.Dir = workDir
	cmd.Env = os.Environ()

	// Run in its own process group so a timeout kills the whole tree, not
	// just the shell.
	if runtime.GOOS != "windows" {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
		cmd.Cancel = func() error {
			if cmd.Process == nil {
				return nil
			}
			return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		cmd.WaitDelay = sigkillDelay
	}

	started := time.Now()
	output, runErr := cmd.CombinedOutput()
	duration := time.Since(started)
	timedOut := cmdCtx.Err() == context.DeadlineExceeded

	result := string(output)

	if timedOut {
		result += fmt.Sprintf("\n(Command timed out after %v)", timeout)
		return &Result{
			Title:  commandTitle(params.Command),
			Output: result,
			Metadata: map[string]any{
				"timedOut":   true,
				"durationMs": duration.Milliseconds(),
			},
		}, nil
	}

	exitCode := 0
	if cmd.ProcessState != nil {
		exitCode = cmd.ProcessState.ExitCode()
	}
	if runErr != nil {
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return nil, fmt.Errorf("failed to run command: %w", runErr)
		}
	}

	// A silent failure gives the model nothing to act on, so surface it as
	// an execution error.
	if exitCode != 0 && strings.TrimSpace(result) == "" {
		return nil, fmt.Errorf("command failed with exit code %d", exitCode)
	}

	return &Result{
		Title:  commandTitle(params.Command),
		Output: result,
		Metadata: map[string]any{
			"exitCode":   exitCode,
			"durationMs": duration.Milliseconds(),
		},
	}, nil
}

func (t *BashTool) resolveWorkdir(workdir string, toolCtx *Context) (string, error) {
	base := ""
	if toolCtx != nil {
		base = toolCtx.WorkDir
	}
	if workdir == "" {
		if base != "" {
			return base, nil
		}
		return t.policy.ProjectRoot, nil
	}

	validated, err := t.policy.ValidatePath(workdir, base)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(validated)
	if err != nil {
		return "", fmt.Errorf("workdir does not exist: %s", workdir)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("workdir is not a directory: %s", workdir)
	}
	return validated, nil
}

func commandTitle(command string) string {
	title := command
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	if len(title) > 80 {
		title = title[:80] + "..."
	}
	return title
}
