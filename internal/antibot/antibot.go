package antibot

import "time"

// Policy flags accounts that act faster than a human plausibly could.
type Policy struct {
	MinInterval time.Duration
	Threshold   int
}

func DefaultPolicy() Policy {
	return Policy{MinInterval: 120 * time.Millisecond, Threshold: 8}
}

// Verdict is the outcome of checking one action.
type Verdict struct {
	Blocked bool // account was already blocked, reject the request
	Suspect bool // action came too fast, add one suspicion point
}

// Evaluate looks at a single action. lastAction is nil when the account has
// never acted. Each call adds at most one point no matter how small the gap is.
func (p Policy) Evaluate(blocked bool, lastAction *time.Time, now time.Time) Verdict {
	if blocked {
		return Verdict{Blocked: true}
	}
	if lastAction == nil {
		return Verdict{}
	}
	return Verdict{Suspect: now.Sub(*lastAction) < p.MinInterval}
}

// ShouldBlock reports whether score has reached the blocking threshold.
func (p Policy) ShouldBlock(score int) bool {
	return p.Threshold > 0 && score >= p.Threshold
}
