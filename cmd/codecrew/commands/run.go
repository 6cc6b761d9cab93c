package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecrew-ai/codecrew/internal/agent"
	"github.com/codecrew-ai/codecrew/internal/permission"
)

var (
	runFiles       []string
	runSystem      string
	runSystemFile  string
	runDir         string
	runAutoApprove bool
	runTimeout     time.Duration
)

var runCmd = &cobra.Command{
	Use:   "run [message...]",
	Short: "Run a one-shot request against a single agent",
	Long: `Run one request through a single ad-hoc agent and print its reply.

Progress lines (thinking, tool calls, failures) go to stderr; the reply
goes to stdout so the output can be piped. Dangerous tools prompt for
permission on the terminal unless --auto-approve is set.

Examples:
  codecrew run "Fix the bug in main.go"
  codecrew run --provider claude "Explain this code"
  codecrew run --file main.go "Review this file"`,
	RunE: runOneShot,
}

func init() {
	runCmd.Flags().StringArrayVarP(&runFiles, "file", "f", nil, "File(s) to attach to the message")
	runCmd.Flags().StringVar(&runSystem, "system-prompt", "", "Custom system prompt")
	runCmd.Flags().StringVar(&runSystemFile, "system-prompt-file", "", "Custom system prompt from file")
	runCmd.Flags().StringVar(&runDir, "directory", "", "Working directory")
	runCmd.Flags().BoolVar(&runAutoApprove, "auto-approve", false, "Approve all tool permission prompts")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "Abort the request after this long (0 = no limit)")
}

func runOneShot(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")
	if message == "" {
		return fmt.Errorf("message required. Usage: codecrew run \"your message\"")
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, runDir)
	if err != nil {
		return err
	}
	defer rt.Close()

	message, err = attachFiles(message, runFiles)
	if err != nil {
		return err
	}

	systemPrompt, err := resolveSystemPrompt(runSystem, runSystemFile)
	if err != nil {
		return err
	}
	agentCfg, err := singleAgentConfig(rt.cfg, systemPrompt)
	if err != nil {
		return err
	}
	a, err := agent.New(ctx, agentCfg, rt.executor, rt.cfg)
	if err != nil {
		return err
	}

	var gate permission.Gateway = newTerminalGateway(os.Stdin, os.Stderr)
	if runAutoApprove {
		gate = permission.AutoAllow{}
	}

	runCtx := ctx
	if runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, runTimeout)
		defer cancel()
	}

	reply, err := sendToAgent(runCtx, a, rt.workDir, message, false, gate, os.Stderr)
	if err != nil {
		return err
	}

	fmt.Println(reply)
	return nil
}
