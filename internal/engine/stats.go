package engine

import (
	"sync"
	"time"
)

// Stats 周期计数快照
type Stats struct {
	Cycles           int64
	SkippedCycles    int64
	QuotesGenerated  int64
	OrdersSubmitted  int64
	OrdersCanceled   int64
	CancelFailures   int64
	BudgetRejections int64
	ProfitRejections int64
	Errors           int64
	LastCycle        time.Time
}

type cycleStats struct {
	mu sync.Mutex
	s  Stats
}

func (c *cycleStats) markCycle(now time.Time) {
	c.mu.Lock()
	c.s.Cycles++
	c.s.LastCycle = now
	c.mu.Unlock()
}

func (c *cycleStats) addSkip() {
	c.mu.Lock()
	c.s.SkippedCycles++
	c.mu.Unlock()
}

func (c *cycleStats) addQuotes(n int) {
	c.mu.Lock()
	c.s.QuotesGenerated += int64(n)
	c.mu.Unlock()
}

func (c *cycleStats) addSubmitted() {
	c.mu.Lock()
	c.s.OrdersSubmitted++
	c.mu.Unlock()
}

func (c *cycleStats) addCanceled() {
	c.mu.Lock()
	c.s.OrdersCanceled++
	c.mu.Unlock()
}

func (c *cycleStats) addCancelFailure() {
	c.mu.Lock()
	c.s.CancelFailures++
	c.mu.Unlock()
}

func (c *cycleStats) addBudgetRejections(n int) {
	c.mu.Lock()
	c.s.BudgetRejections += int64(n)
	c.mu.Unlock()
}

func (c *cycleStats) addProfitRejection() {
	c.mu.Lock()
	c.s.ProfitRejections++
	c.mu.Unlock()
}

func (c *cycleStats) addError() {
	c.mu.Lock()
	c.s.Errors++
	c.mu.Unlock()
}

func (c *cycleStats) snapshot() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s
}
