package types

// Usage is the normalized token accounting for one provider response.
// OpenAI-family responses report prompt/completion tokens, Anthropic reports
// input/output tokens; adapters fold both into this shape.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Total returns input + output tokens.
func (u Usage) Total() int { return u.InputTokens + u.OutputTokens }

// Add accumulates another usage record.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}
