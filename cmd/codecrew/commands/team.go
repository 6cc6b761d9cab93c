package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecrew-ai/codecrew/internal/channel"
	"github.com/codecrew-ai/codecrew/internal/provider"
	"github.com/codecrew-ai/codecrew/internal/team"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

var (
	addAgentName       string
	addAgentRole       string
	addAgentSystem     string
	addAgentSystemFile string
	addAgentKey        string
	addAgentOllamaURL  string

	broadcastDir     string
	broadcastTimeout time.Duration
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage agent teams",
	Long: `Create, inspect and run multi-agent teams.

Teams are stored under ~/.codecrew/teams/ as JSON and can be edited by
hand; API keys inherited from the config are never written to them.`,
}

var teamCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create an empty team",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeamCreate,
}

var teamPresetCmd = &cobra.Command{
	Use:   "preset <name>",
	Short: "Create the five-agent preset team",
	Long: `Create a team with the default relay on the configured default
provider: Architect, Frontend, Backend, Reviewer, DevOps.`,
	Args: cobra.ExactArgs(1),
	RunE: runTeamPreset,
}

var teamListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved teams",
	RunE:  runTeamList,
}

var teamShowCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show a team's agents",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTeamShow,
}

var teamDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved team",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeamDelete,
}

var teamAddAgentCmd = &cobra.Command{
	Use:   "add-agent",
	Short: "Add an agent to a team",
	Long: `Add one agent to a saved team. The provider and model come from the
persistent --provider/--model flags, falling back to the config defaults.

Example:
  codecrew team add-agent --team ship-it --name Tester --role "QA Engineer" \
    --provider claude --system-prompt "You write and run the tests."`,
	RunE: runTeamAddAgent,
}

var teamRemoveAgentCmd = &cobra.Command{
	Use:   "remove-agent <id-or-name>",
	Short: "Remove an agent from a team",
	Args:  cobra.ExactArgs(1),
	RunE:  runTeamRemoveAgent,
}

var teamBroadcastCmd = &cobra.Command{
	Use:   "broadcast [message...]",
	Short: "Send one message to every agent in a team",
	Long: `Send one message to every agent of a team in roster order. Each agent
sees the replies of the agents before it; replies print to stdout as they
land, progress lines to stderr.

Example:
  codecrew team broadcast --team ship-it "Add a health endpoint to the API"`,
	RunE: runTeamBroadcast,
}

func init() {
	teamAddAgentCmd.Flags().StringVar(&addAgentName, "name", "", "Agent name (required)")
	teamAddAgentCmd.Flags().StringVar(&addAgentRole, "role", "", "Agent role shown to teammates")
	teamAddAgentCmd.Flags().StringVar(&addAgentSystem, "system-prompt", "", "Agent system prompt")
	teamAddAgentCmd.Flags().StringVar(&addAgentSystemFile, "system-prompt-file", "", "Agent system prompt from file")
	teamAddAgentCmd.Flags().StringVar(&addAgentKey, "api-key", "", "Per-agent API key (default: config key for the provider)")
	teamAddAgentCmd.Flags().StringVar(&addAgentOllamaURL, "ollama-url", "", "Per-agent Ollama base URL")

	teamBroadcastCmd.Flags().StringVar(&broadcastDir, "directory", "", "Working directory")
	teamBroadcastCmd.Flags().DurationVar(&broadcastTimeout, "timeout", 0, "Abort the broadcast after this long (0 = no limit)")

	teamCmd.AddCommand(teamCreateCmd)
	teamCmd.AddCommand(teamPresetCmd)
	teamCmd.AddCommand(teamListCmd)
	teamCmd.AddCommand(teamShowCmd)
	teamCmd.AddCommand(teamDeleteCmd)
	teamCmd.AddCommand(teamAddAgentCmd)
	teamCmd.AddCommand(teamRemoveAgentCmd)
	teamCmd.AddCommand(teamBroadcastCmd)
}

// resolveTeamName prefers the positional name, then the --team flag.
func resolveTeamName(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if teamFlag != "" {
		return teamFlag, nil
	}
	return "", errors.New("no team specified (use --team)")
}

// requireNewTeamName errors when a team already occupies the name's slot
// on disk.
func requireNewTeamName(rt *runtime, name string) error {
	summaries, err := rt.manager.List()
	if err != nil {
		return err
	}
	for _, s := range summaries {
		if team.SafeName(s.Name) == team.SafeName(name) {
			return fmt.Errorf("team %q already exists", s.Name)
		}
	}
	return nil
}

func runTeamCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	name := args[0]
	if err := requireNewTeamName(rt, name); err != nil {
		return err
	}
	if _, err := rt.manager.Create(name); err != nil {
		return err
	}
	if err := rt.manager.Save(""); err != nil {
		return err
	}

	fmt.Printf("Created team %q (%s)\n", name, rt.paths.TeamPath(team.SafeName(name)))
	fmt.Printf("Add agents with: codecrew team add-agent --team %q --name <name>\n", name)
	return nil
}

func runTeamPreset(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	name := args[0]
	if err := requireNewTeamName(rt, name); err != nil {
		return err
	}
	if providerFlag != "" {
		rt.cfg.DefaultProvider = types.Provider(providerFlag)
	}
	t, err := rt.manager.CreateDefault(ctx, name)
	if err != nil {
		return err
	}
	if err := rt.manager.Save(""); err != nil {
		return err
	}

	fmt.Printf("Created team %q with %d agents:\n", name, t.AgentCount())
	for _, a := range t.Agents() {
		fmt.Printf("  %s (%s)\n", a.Name(), a.Role())
	}
	return nil
}

func runTeamList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	summaries, err := rt.manager.List()
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Println("No teams saved. Create one with: codecrew team create <name>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAGENTS\tUPDATED\t")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%d\t%s\t\n", s.Name, s.AgentCount, s.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runTeamShow(cmd *cobra.Command, args []string) error {
	name, err := resolveTeamName(args)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	sum, agents, err := rt.manager.Describe(name)
	if err != nil {
		return err
	}

	fmt.Printf("Team %s: %d agent(s), updated %s\n\n", sum.Name, sum.AgentCount, sum.UpdatedAt.Local().Format("2006-01-02 15:04"))
	if len(agents) == 0 {
		fmt.Println("No agents yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tROLE\tPROVIDER\tMODEL\tID\t")
	for _, a := range agents {
		model := a.Model
		if model == "" {
			model = rt.cfg.ModelFor(a.Provider)
		}
		if model == "" {
			model = provider.DefaultModelFor(a.Provider)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t\n", a.Name, a.Role, a.Provider, model, a.ID)
	}
	return w.Flush()
}

func runTeamDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	rt, err := newRuntime(ctx, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.manager.Delete(args[0]); err != nil {
		return err
	}
	fmt.Printf("Deleted team %q\n", args[0])
	return nil
}

func runTeamAddAgent(cmd *cobra.Command, args []string) error {
	name, err := resolveTeamName(nil)
	if err != nil {
		return err
	}
	if addAgentName == "" {
		return errors.New("--name is required")
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.manager.Load(ctx, name); err != nil {
		return err
	}

	systemPrompt, err := resolveSystemPrompt(addAgentSystem, addAgentSystemFile)
	if err != nil {
		return err
	}
	p, err := resolveProvider(rt.cfg)
	if err != nil {
		return err
	}

	cfg := types.AgentConfig{
		Name:         addAgentName,
		Role:         addAgentRole,
		SystemPrompt: systemPrompt,
		Provider:     p,
		Model:        modelFlag,
		APIKey:       addAgentKey,
	}
	if addAgentOllamaURL != "" {
		u := addAgentOllamaURL
		cfg.OllamaBaseURL = &u
	}

	a, err := rt.manager.AddAgent(ctx, cfg)
	if err != nil {
		return err
	}
	if err := rt.manager.Save(""); err != nil {
		return err
	}

	fmt.Printf("Added %s (%s) to %q as %s\n", a.Name(), a.Provider().Name(), name, a.ID())
	return nil
}

func runTeamRemoveAgent(cmd *cobra.Command, args []string) error {
	name, err := resolveTeamName(nil)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, "")
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.manager.Load(ctx, name); err != nil {
		return err
	}
	if err := rt.manager.RemoveAgent(args[0]); err != nil {
		return err
	}
	if err := rt.manager.Save(""); err != nil {
		return err
	}

	fmt.Printf("Removed %q from %q\n", args[0], name)
	return nil
}

func runTeamBroadcast(cmd *cobra.Command, args []string) error {
	message := strings.Join(args, " ")
	if message == "" {
		return fmt.Errorf("message required. Usage: codecrew team broadcast --team <name> \"your message\"")
	}
	name, err := resolveTeamName(nil)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rt, err := newRuntime(ctx, broadcastDir)
	if err != nil {
		return err
	}
	defer rt.Close()

	t, err := rt.manager.Load(ctx, name)
	if err != nil {
		return err
	}

	printer := newTeamPrinter(os.Stdout, os.Stderr)
	printer.subscribe()
	defer printer.close()

	broadcastCtx := ctx
	if broadcastTimeout > 0 {
		var cancel context.CancelFunc
		broadcastCtx, cancel = context.WithTimeout(ctx, broadcastTimeout)
		defer cancel()
	}

	ch := channel.New(t, rt.workDir)
	replies, err := ch.Broadcast(broadcastCtx, message)
	if err != nil {
		return err
	}

	failed := 0
	for _, r := range replies {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d agents failed\n", failed, len(replies))
	}
	return nil
}
