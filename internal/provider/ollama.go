package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaChatBaseURL maps an Ollama server root to its OpenAI-compatible
// endpoint. Chat traffic speaks the OpenAI dialect under /v1; discovery uses
// the native API at the root.
func OllamaChatBaseURL(base string) string {
	return strings.TrimRight(base, "/") + "/v1"
}

// OllamaModel describes one locally installed model.
type OllamaModel struct {
	Name       string
	Size       int64
	ModifiedAt time.Time
}

// ListOllamaModels queries a local Ollama server for its installed models.
func ListOllamaModels(ctx context.Context, base string) ([]OllamaModel, error) {
	if base == "" {
		base = DefaultOllamaBaseURL
	}
	parsed, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse ollama base URL: %w", err)
	}

	client := api.NewClient(parsed, http.DefaultClient)
	res, err := client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ollama models: %w", err)
	}

	models := make([]OllamaModel, 0, len(res.Models))
	for _, m := range res.Models {
		models = append(models, OllamaModel{
			Name:       m.Name,
			Size:       m.Size,
			ModifiedAt: m.ModifiedAt,
		})
	}
	return models, nil
}
