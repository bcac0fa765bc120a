package llmclient

import "sync"

// Tracker counts LLM calls and token spend for one brand run. The budget is
// per-fetcher-per-brand state, not process-global.
type Tracker struct {
	mu                sync.Mutex
	maxCalls          int
	totalCalls        int
	totalInputTokens  int
	totalOutputTokens int
}

// NewTracker starts a budget window of maxCalls calls.
func NewTracker(maxCalls int) *Tracker {
	return &Tracker{maxCalls: maxCalls}
}

// CanCall reports whether at least one call remains in the budget.
func (t *Tracker) CanCall() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalCalls < t.maxCalls
}

// Record counts one completed call and its token usage.
func (t *Tracker) Record(inputTokens, outputTokens int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalCalls++
	t.totalInputTokens += inputTokens
	t.totalOutputTokens += outputTokens
}

// Reset starts a fresh budget window.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totalCalls = 0
	t.totalInputTokens = 0
	t.totalOutputTokens = 0
}

// Summary snapshots the current spend.
func (t *Tracker) Summary() Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	remaining := t.maxCalls - t.totalCalls
	if remaining < 0 {
		remaining = 0
	}
	return Summary{
		TotalCalls:        t.totalCalls,
		TotalInputTokens:  t.totalInputTokens,
		TotalOutputTokens: t.totalOutputTokens,
		BudgetRemaining:   remaining,
		BudgetExceeded:    t.totalCalls >= t.maxCalls,
	}
}
