package sandbox

// TruncationMarker joins the kept head and tail of an over-long result.
const TruncationMarker = "…[TRUNCATED]…"

// Truncate enforces the result byte cap: strings at or under max pass
// through unchanged, longer ones keep the first max/2 and last max/5 bytes
// joined by the marker. With the default 10 KiB cap that is 5 KiB of head
// and 2 KiB of tail.
func Truncate(s string, max int) string {
	if max <= 0 {
		max = DefaultMaxResultBytes
	}
	if len(s) <= max {
		return s
	}

	head := max / 2
	tail := max / 5
	if head+tail+len(TruncationMarker) > max {
		// Degenerate caps: keep what fits
		if max <= len(TruncationMarker) {
			return s[:max]
		}
		head = (max - len(TruncationMarker)) / 2
		tail = max - len(TruncationMarker) - head
	}

	return s[:head] + TruncationMarker + s[len(s)-tail:]
}

// Truncate applies the policy's result cap.
func (p *Policy) Truncate(s string) string {
	return Truncate(s, p.MaxResultBytes)
}
