package sandbox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate_ShortPassThrough(t *testing.T) {
	s := "short result"
	assert.Equal(t, s, Truncate(s, DefaultMaxResultBytes))

	// Exactly at the cap is a no-op
	exact := strings.Repeat("a", DefaultMaxResultBytes)
	assert.Equal(t, exact, Truncate(exact, DefaultMaxResultBytes))
}

func TestTruncate_LongKeepsHeadAndTail(t *testing.T) {
	s := strings.Repeat("a", 5120) + strings.Repeat("b", 10000) + strings.Repeat("c", 2048)

	out := Truncate(s, DefaultMaxResultBytes)

	assert.LessOrEqual(t, len(out), DefaultMaxResultBytes)
	assert.Contains(t, out, TruncationMarker)
	assert.True(t, strings.HasPrefix(out, strings.Repeat("a", 5120)))
	assert.True(t, strings.HasSuffix(out, strings.Repeat("c", 2048)))
}

func TestTruncate_NeverExceedsCap(t *testing.T) {
	s := strings.Repeat("x", 100000)
	for _, max := range []int{64, 100, 1000, 10240} {
		out := Truncate(s, max)
		assert.LessOrEqual(t, len(out), max, "cap %d", max)
	}
}

func TestTruncate_ZeroCapUsesDefault(t *testing.T) {
	s := strings.Repeat("x", DefaultMaxResultBytes+1)
	out := Truncate(s, 0)
	assert.LessOrEqual(t, len(out), DefaultMaxResultBytes)
	assert.Contains(t, out, TruncationMarker)
}

func TestPolicyTruncate(t *testing.T) {
	p := DefaultPolicy(t.TempDir())
	p.MaxResultBytes = 100

	out := p.Truncate(strings.Repeat("y", 500))
	assert.LessOrEqual(t, len(out), 100)
}
