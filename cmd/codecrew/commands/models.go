package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/codecrew-ai/codecrew/internal/config"
	"github.com/codecrew-ai/codecrew/internal/provider"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

var modelsVerbose bool

// ollamaListTimeout caps the live /api/tags query so an absent local
// server does not hang the listing.
const ollamaListTimeout = 3 * time.Second

var modelsCmd = &cobra.Command{
	Use:   "models [provider]",
	Short: "List providers and their models",
	Long: `List the supported providers with their configured models and keys.
For ollama the local server is queried live for its installed models.

Examples:
  codecrew models            # all providers
  codecrew models claude     # one provider
  codecrew models --verbose  # include pricing`,
	RunE: runModels,
}

func init() {
	modelsCmd.Flags().BoolVarP(&modelsVerbose, "verbose", "v", false, "Include pricing per million tokens")
}

func runModels(cmd *cobra.Command, args []string) error {
	workDir, err := os.Getwd()
	if err != nil {
		return err
	}

	paths := config.GetPaths()
	if err := paths.EnsurePaths(); err != nil {
		return err
	}
	cfg, err := config.Load(workDir)
	if err != nil {
		return err
	}
	if err := initLogging(cfg, paths); err != nil {
		return err
	}

	var filter types.Provider
	if len(args) > 0 {
		filter = types.Provider(args[0])
		if !filter.Valid() {
			return fmt.Errorf("unknown provider %q (grok|groq|gemini|claude|ollama)", args[0])
		}
	}

	ctx := context.Background()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if modelsVerbose {
		fmt.Fprintln(w, "PROVIDER\tMODEL\tFEATURES\tKEY\tINPUT PRICE\tOUTPUT PRICE\t")
	} else {
		fmt.Fprintln(w, "PROVIDER\tMODEL\tFEATURES\tKEY\t")
	}

	for _, p := range types.Providers {
		if filter != "" && p != filter {
			continue
		}
		for _, model := range modelsFor(ctx, cfg, p) {
			writeModelRow(w, cfg, p, model)
		}
	}
	return w.Flush()
}

// modelsFor returns the model names to list for one provider. Ollama is
// asked live; everything else lists the configured-or-default model.
func modelsFor(ctx context.Context, cfg *types.Config, p types.Provider) []string {
	if p == types.ProviderOllama {
		listCtx, cancel := context.WithTimeout(ctx, ollamaListTimeout)
		defer cancel()
		installed, err := provider.ListOllamaModels(listCtx, cfg.BaseURLFor(p))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: ollama discovery failed: %v\n", err)
		} else if len(installed) > 0 {
			names := make([]string, len(installed))
			for i, m := range installed {
				names[i] = m.Name
			}
			return names
		}
	}

	model := cfg.ModelFor(p)
	if model == "" {
		model = provider.DefaultModelFor(p)
	}
	return []string{model}
}

func writeModelRow(w io.Writer, cfg *types.Config, p types.Provider, model string) {
	features := ""
	if p.ToolCapable() {
		features = "tools"
	}
	key := "-"
	if p == types.ProviderOllama {
		key = "n/a"
	} else if cfg.APIKeyFor(p) != "" {
		key = "yes"
	}

	if modelsVerbose {
		r := provider.RateFor(p, cfg)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t$%.2f/1M\t$%.2f/1M\t\n", p, model, features, key, r.Input, r.Output)
	} else {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n", p, model, features, key)
	}
}
