package sandbox

// LimitExceededResult is the synthetic tool result delivered once the
// per-request call ceiling is reached.
const LimitExceededResult = "[Tool limit reached: max tool calls exceeded]"

// RoundLimitNote is appended to an agent's output when the tool loop stops
// on a round or call bound.
const RoundLimitNote = "[Tool limit: max rounds reached]"

// Counter tracks tool-loop consumption for a single agent request. It is
// not safe for concurrent use; a request executes its tool calls
// sequentially by design.
type Counter struct {
	maxRounds int
	ceiling   int
	rounds    int
	toolCalls int
}

// NewCounter returns a counter bounded by maxRounds rounds and
// maxRounds*maxToolCallsPerRound total invocations.
func NewCounter(maxRounds, maxToolCallsPerRound int) *Counter {
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	if maxToolCallsPerRound <= 0 {
		maxToolCallsPerRound = DefaultMaxToolCallsPerRound
	}
	return &Counter{
		maxRounds: maxRounds,
		ceiling:   maxRounds * maxToolCallsPerRound,
	}
}

// CounterFor returns a fresh counter sized by the policy's bounds.
func (p *Policy) CounterFor() *Counter {
	return NewCounter(p.MaxRounds, p.MaxToolCallsPerRound)
}

// BeginRound records the start of one provider→tools cycle.
func (c *Counter) BeginRound() {
	c.rounds++
}

// RecordCall consumes one invocation from the budget and reports whether
// the call may proceed. Once it returns false every subsequent call must
// receive LimitExceededResult instead of executing.
func (c *Counter) RecordCall() bool {
	if c.toolCalls >= c.ceiling {
		return false
	}
	c.toolCalls++
	return true
}

// Exhausted reports whether the loop must stop at the next round boundary.
func (c *Counter) Exhausted() bool {
	return c.rounds >= c.maxRounds || c.toolCalls >= c.ceiling
}

// Rounds returns the number of rounds begun.
func (c *Counter) Rounds() int { return c.rounds }

// ToolCalls returns the number of invocations consumed.
func (c *Counter) ToolCalls() int { return c.toolCalls }

// Ceiling returns the total invocation budget.
func (c *Counter) Ceiling() int { return c.ceiling }
