package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/codecrew-ai/codecrew/internal/agent"
	"github.com/codecrew-ai/codecrew/internal/config"
	"github.com/codecrew-ai/codecrew/internal/logging"
	"github.com/codecrew-ai/codecrew/internal/mcp"
	"github.com/codecrew-ai/codecrew/internal/sandbox"
	"github.com/codecrew-ai/codecrew/internal/storage"
	"github.com/codecrew-ai/codecrew/internal/team"
	"github.com/codecrew-ai/codecrew/internal/tool"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

// runtime is the wired stack every command shares: configuration, the
// sandboxed tool executor, MCP servers, and the team manager.
type runtime struct {
	workDir  string
	paths    *config.Paths
	cfg      *types.Config
	store    *storage.Storage
	registry *tool.Registry
	executor *tool.Executor
	manager  *team.Manager
	mcp      *mcp.Client
}

// newRuntime builds the runtime for one invocation. MCP servers that fail
// to start are reported and skipped; the rest of the stack comes up anyway.
func newRuntime(ctx context.Context, dir string) (*runtime, error) {
	workDir, err := GetWorkDir(dir)
	if err != nil {
		return nil, err
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return nil, err
	}

	cfg, err := config.Load(workDir)
	if err != nil {
		return nil, err
	}
	if err := initLogging(cfg, paths); err != nil {
		return nil, err
	}

	if safeMode {
		if cfg.Sandbox == nil {
			cfg.Sandbox = &types.SandboxConfig{}
		}
		cfg.Sandbox.SafeMode = true
	}

	policy := sandbox.PolicyFromConfig(workDir, cfg.Sandbox)
	store := storage.New(paths.Root)
	registry := tool.NewDefault(policy, store)
	executor := tool.NewExecutor(registry, policy, sandbox.NewCallLog())

	rt := &runtime{
		workDir:  workDir,
		paths:    paths,
		cfg:      cfg,
		store:    store,
		registry: registry,
		executor: executor,
		manager:  team.NewManager(paths, cfg, executor),
	}

	if len(cfg.MCP) > 0 {
		client := mcp.NewClient()
		for name, mcpCfg := range cfg.MCP {
			if err := client.AddServer(ctx, name, mcpCfg); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: mcp server %s failed: %v\n", name, err)
			}
		}
		mcp.RegisterTools(client, registry)
		rt.mcp = client
	}

	return rt, nil
}

// Close releases runtime resources, in particular MCP server subprocesses.
func (r *runtime) Close() {
	if r.mcp != nil {
		_ = r.mcp.Close()
	}
}

// initLogging routes logs to ~/.codecrew/logs/codecrew.log so terminal
// output stays clean; --print-logs mirrors them to stderr.
func initLogging(cfg *types.Config, paths *config.Paths) error {
	logCfg := logging.Config{
		Level:    logging.InfoLevel,
		Output:   io.Discard,
		FilePath: paths.LogPath(),
	}
	if cfg.Log != nil {
		if cfg.Log.Level != "" {
			logCfg.Level = logging.ParseLevel(cfg.Log.Level)
		}
		if cfg.Log.File != "" {
			logCfg.FilePath = cfg.Log.File
		}
	}
	if logLevel != "" {
		logCfg.Level = logging.ParseLevel(logLevel)
	}
	if printLogs {
		logCfg.Output = os.Stderr
		logCfg.Pretty = true
	}
	return logging.Init(logCfg)
}

// resolveProvider picks the provider for a new agent: the --provider flag
// first, then the config default.
func resolveProvider(cfg *types.Config) (types.Provider, error) {
	p := cfg.DefaultProvider
	if providerFlag != "" {
		p = types.Provider(providerFlag)
	}
	if p == "" {
		return "", fmt.Errorf("no provider configured: set defaultProvider in %s or pass --provider", config.GetPaths().ConfigPath())
	}
	if !p.Valid() {
		return "", fmt.Errorf("unknown provider %q (grok|groq|gemini|claude|ollama)", p)
	}
	return p, nil
}

const defaultSystemPrompt = `You are codecrew, a pragmatic coding assistant working inside the user's project directory. Use your tools to read, search, and modify files rather than guessing at their contents, and run commands when the task calls for it. Keep replies grounded in what you actually found or changed.`

// singleAgentConfig resolves the ad-hoc agent that run and chat use from
// the persistent provider/model flags and the config defaults.
func singleAgentConfig(cfg *types.Config, systemPrompt string) (types.AgentConfig, error) {
	p, err := resolveProvider(cfg)
	if err != nil {
		return types.AgentConfig{}, err
	}
	if systemPrompt == "" {
		systemPrompt = defaultSystemPrompt
	}
	return types.AgentConfig{
		ID:           agent.NewID(),
		Name:         "codecrew",
		Role:         "coding assistant",
		SystemPrompt: systemPrompt,
		Provider:     p,
		Model:        modelFlag,
	}, nil
}

// resolveSystemPrompt returns the file contents when a prompt file is
// given, otherwise the inline text (possibly empty).
func resolveSystemPrompt(inline, fromFile string) (string, error) {
	if fromFile != "" {
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return "", fmt.Errorf("failed to read prompt file: %w", err)
		}
		return string(data), nil
	}
	return inline, nil
}

// attachFiles appends each file's contents to the message under a header
// line naming the file.
func attachFiles(message string, files []string) (string, error) {
	if len(files) == 0 {
		return message, nil
	}
	out := message
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("failed to read file %s: %w", file, err)
		}
		out += fmt.Sprintf("\n\n--- File: %s ---\n%s", file, string(content))
	}
	return out, nil
}
