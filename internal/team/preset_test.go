package team

import (
	"context"
	"strings"
	"testing"

	"github.com/codecrew-ai/codecrew/pkg/types"
)

func TestDefaultPreset_RelayOrder(t *testing.T) {
	preset := DefaultPreset(types.ProviderClaude)

	wantNames := []string{"Architect", "Frontend", "Backend", "Reviewer", "DevOps"}
	if len(preset) != len(wantNames) {
		t.Fatalf("preset has %d agents, want %d", len(preset), len(wantNames))
	}
	for i, cfg := range preset {
		if cfg.Name != wantNames[i] {
			t.Errorf("preset[%d] = %s, want %s; the relay order is load-bearing", i, cfg.Name, wantNames[i])
		}
		if cfg.Provider != types.ProviderClaude {
			t.Errorf("preset[%d] provider = %s", i, cfg.Provider)
		}
		if cfg.Role == "" {
			t.Errorf("preset[%d] has no role", i)
		}
		if len(cfg.SystemPrompt) < 300 {
			t.Errorf("preset[%d] prompt is too thin to describe the handoff (%d chars)", i, len(cfg.SystemPrompt))
		}
	}

	if !strings.Contains(preset[0].SystemPrompt, "plan") {
		t.Error("the Architect prompt should demand a plan")
	}
	if !strings.Contains(preset[3].SystemPrompt, "review") {
		t.Error("the Reviewer prompt should demand a review")
	}
	for _, cfg := range preset[1:] {
		if !strings.Contains(cfg.SystemPrompt, "relay") {
			t.Errorf("%s prompt does not place the agent in the relay", cfg.Name)
		}
	}
}

func TestManager_CreateDefault(t *testing.T) {
	h := newManagerHarness(t)

	team, err := h.manager.CreateDefault(context.Background(), "default")
	if err != nil {
		t.Fatalf("CreateDefault() error: %v", err)
	}
	if team.AgentCount() != 5 {
		t.Fatalf("AgentCount() = %d, want 5", team.AgentCount())
	}
	if h.manager.Current() != team {
		t.Error("CreateDefault should select the new team")
	}

	agents := team.Agents()
	if agents[0].Name() != "Architect" || agents[4].Name() != "DevOps" {
		t.Errorf("relay order broken: first=%s last=%s", agents[0].Name(), agents[4].Name())
	}
	for _, a := range agents {
		if a.Provider().ID() != types.ProviderGrok {
			t.Errorf("agent %s bound to %s, want the config default", a.Name(), a.Provider().ID())
		}
	}
}

func TestManager_CreateDefaultNeedsProvider(t *testing.T) {
	h := newManagerHarness(t)
	h.deps.defaults.DefaultProvider = ""

	if _, err := h.manager.CreateDefault(context.Background(), "default"); err == nil {
		t.Error("CreateDefault without a default provider should fail")
	}
}
