package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codecrew-ai/codecrew/internal/agent"
	"github.com/codecrew-ai/codecrew/internal/command"
	"github.com/codecrew-ai/codecrew/internal/permission"
)

var (
	chatSystem      string
	chatSystemFile  string
	chatDir         string
	chatAutoApprove bool
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with a single agent",
	Long: `Start a line-based chat with one agent. The conversation history
lives for the life of the process; nothing is persisted.

Inside the chat:
  /clear      forget the conversation so far
  /stats      show tool-call tallies and export the session's tool log
  /commands   list canned prompts (markdown files under
              ~/.codecrew/commands and ./.codecrew/commands)
  /<name>     expand a canned prompt and send it
  /exit       leave (Ctrl-D works too)`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSystem, "system-prompt", "", "Custom system prompt")
	chatCmd.Flags().StringVar(&chatSystemFile, "system-prompt-file", "", "Custom system prompt from file")
	chatCmd.Flags().StringVar(&chatDir, "directory", "", "Working directory")
	chatCmd.Flags().BoolVar(&chatAutoApprove, "auto-approve", false, "Approve all tool permission prompts")
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, chatDir)
	if err != nil {
		return err
	}
	defer rt.Close()

	systemPrompt, err := resolveSystemPrompt(chatSystem, chatSystemFile)
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

	// One buffered reader serves both the chat loop and the permission
	// prompts, so typed-ahead input is never split between two buffers.
	in := bufio.NewReader(os.Stdin)
	var gate permission.Gateway = newTerminalGateway(in, os.Stderr)
	if chatAutoApprove {
		gate = permission.AutoAllow{}
	}

	library := command.Load(rt.paths.CommandsPath(), rt.workDir)

	fmt.Printf("codecrew chat with %s (%s). Ctrl-D or /exit to leave.\n", a.Provider().Name(), a.Provider().Model())

	for {
		fmt.Print("> ")
		line, err := in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "/exit", "/quit":
			return nil
		case "/clear":
			a.ClearHistory()
			fmt.Fprintln(os.Stderr, "history cleared")
			continue
		case "/stats":
			exportToolLog(ctx, rt, a.ID(), os.Stdout)
			continue
		case "/commands":
			printCommands(library)
			continue
		}

		if strings.HasPrefix(line, "/") {
			name, rest, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
			line, err = library.Expand(name, rest)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
		}

		reply, err := sendToAgent(ctx, a, rt.workDir, line, true, gate, os.Stderr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			continue
		}
		fmt.Printf("\n%s\n\n", reply)
	}
}

// exportToolLog prints the session's per-tool tallies and writes the full
// log under toollog/ so it can be inspected after the chat ends.
func exportToolLog(ctx context.Context, rt *runtime, agentID string, w io.Writer) {
	log := rt.executor.Log()
	if log.Len() == 0 {
		fmt.Fprintln(w, "No tool calls yet.")
		return
	}

	stats := log.Stats()
	names := make([]string, 0, len(stats))
	for name := range stats {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s := stats[name]
		fmt.Fprintf(w, "%-12s %d calls, %d ok\n", name, s.Calls, s.Successes)
	}

	if err := log.Persist(ctx, rt.store, agentID); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to export tool log: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Log exported to %s\n", filepath.Join(rt.store.Dir("toollog"), agentID+".json"))
}

func printCommands(library *command.Library) {
	if library.Len() == 0 {
		fmt.Println("No canned prompts. Drop markdown files into ~/.codecrew/commands/ to add some.")
		return
	}
	for _, name := range library.Names() {
		cmd, _ := library.Get(name)
		if cmd.Description != "" {
			fmt.Printf("/%-20s %s\n", name, cmd.Description)
		} else {
			fmt.Printf("/%s\n", name)
		}
	}
}
