package provider_test

import (
	"context"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/joho/godotenv"

	"github.com/codecrew-ai/codecrew/internal/provider"
	"github.com/codecrew-ai/codecrew/pkg/types"
)

func TestProviderSuite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Provider Suite")
}

var _ = BeforeSuite(func() {
	_ = godotenv.Load("../../.env")
})

var _ = Describe("New", func() {
	It("rejects unknown provider tags", func() {
		_, err := provider.New(context.Background(), types.AgentConfig{
			Name:     "x",
			Provider: types.Provider("watson"),
		}, &types.Config{})
		Expect(err).To(MatchError(provider.ErrUnknownProvider))
	})

	It("rejects key-bearing providers without a key", func() {
		_, err := provider.New(context.Background(), types.AgentConfig{
			Name:     "x",
			Provider: types.ProviderClaude,
		}, &types.Config{})
		Expect(err).To(MatchError(provider.ErrMissingAPIKey))
	})

	It("builds ollama without a key", func() {
		p, err := provider.New(context.Background(), types.AgentConfig{
			Name:     "x",
			Provider: types.ProviderOllama,
		}, &types.Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(p.ID()).To(Equal(types.ProviderOllama))
	})
})

// liveSpec wires one env-gated round trip against a real backend.
func liveSpec(tag types.Provider, envKey string) bool {
	return Describe(string(tag)+" live", func() {
		var p provider.Provider

		BeforeEach(func() {
			apiKey := os.Getenv(envKey)
			if apiKey == "" {
				Skip(envKey + " not set")
			}
			var err error
			p, err = provider.New(context.Background(), types.AgentConfig{
				Name:     "live",
				Provider: tag,
				APIKey:   apiKey,
			}, &types.Config{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("answers a simple prompt", func() {
			resp, err := p.Send(context.Background(), &provider.Request{
				Messages: []types.Message{types.UserMessage("Reply with the single word: pong")},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Text).NotTo(BeEmpty())
			Expect(resp.StopReason).To(Equal(provider.StopEndTurn))
			Expect(resp.Usage.Total()).To(BeNumerically(">", 0))
		})
	})
}

var _ = liveSpec(types.ProviderGrok, "GROK_API_KEY")
var _ = liveSpec(types.ProviderGroq, "GROQ_API_KEY")
var _ = liveSpec(types.ProviderGemini, "GEMINI_API_KEY")
var _ = liveSpec(types.ProviderClaude, "CLAUDE_API_KEY")
