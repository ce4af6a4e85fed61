// Package engine drives the quoting refresh cycle: cancel resting orders,
// rebuild a proposal from volatility and balances, budget-check it
// all-or-none, profit-filter it against the current mid, and submit.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pmm-quoter-go/infrastructure/logger"
	"pmm-quoter-go/monitor"
	"pmm-quoter-go/strategy"
)

// MarketDataFeed 行情协作方：窗口未填满前 Ready 必须为 false。
type MarketDataFeed interface {
	Ready() bool
	RecentHigh() decimal.Decimal
	RecentLow() decimal.Decimal
}

// PriceOracle provides the quoting anchor; an error means "absent".
type PriceOracle interface {
	MidPrice(pair string) (decimal.Decimal, error)
}

// BalanceOracle is read fresh at the start of every proposal cycle;
// balances are never cached across cycles.
type BalanceOracle interface {
	Available(asset string) (decimal.Decimal, error)
}

// BudgetAdjuster applies all-or-none funding: either every order in the
// proposal survives or the result is empty.
type BudgetAdjuster interface {
	Adjust(quotes []strategy.Quote) ([]strategy.Quote, error)
}

// OrderGateway 下单/撤单/查询活跃订单。
type OrderGateway interface {
	Submit(pair string, side strategy.Side, amount, price decimal.Decimal) (string, error)
	Cancel(pair, orderID string) error
	ListActive(pair string) ([]string, error)
}

var (
	ErrFeedNotReady     = errors.New("market data feed not ready")
	ErrNoReferencePrice = errors.New("no reference price available")
)

// Params are the runtime-tunable quoting parameters. They may be replaced
// between cycles via ApplyParams (config hot reload).
type Params struct {
	RefreshInterval time.Duration
	BaseOrderAmount decimal.Decimal
	RiskFraction    decimal.Decimal
	Bounds          strategy.SpreadBounds
}

// Validate rejects configuration errors at startup rather than per cycle.
func (p Params) Validate() error {
	if p.RefreshInterval <= 0 {
		return errors.New("refreshInterval must be > 0")
	}
	if !p.BaseOrderAmount.IsPositive() {
		return errors.New("baseOrderAmount must be > 0")
	}
	if !p.RiskFraction.IsPositive() || p.RiskFraction.GreaterThan(decimal.NewFromInt(1)) {
		return errors.New("riskFraction must be in (0, 1]")
	}
	return p.Bounds.Validate()
}

// Config 引擎配置
type Config struct {
	Pair         string        // BASE-QUOTE，如 ETH-USDT
	PollInterval time.Duration // 触发检查周期，默认 1s
	Params       Params
}

// Collaborators 引擎依赖的外部协作方
type Collaborators struct {
	Feed     MarketDataFeed
	Prices   PriceOracle
	Balances BalanceOracle
	Budget   BudgetAdjuster
	Orders   OrderGateway
	Logger   *logger.Logger
	Monitor  *monitor.Monitor
	Clock    Clock
}

// Engine owns all mutable strategy state (cycle state, lastRefresh) behind
// a single strictly sequential driving loop. Cycles are gated purely by
// timestamp comparison; a new cycle can never start mid-flight because only
// the loop goroutine runs them.
type Engine struct {
	cfg        Config
	baseAsset  string
	quoteAsset string

	feed     MarketDataFeed
	prices   PriceOracle
	balances BalanceOracle
	budget   BudgetAdjuster
	orders   OrderGateway

	log   *logger.Logger
	mon   *monitor.Monitor
	clock Clock

	mu          sync.RWMutex
	params      Params
	state       CycleState
	lastRefresh time.Time
	running     bool

	stopChan chan struct{}
	doneChan chan struct{}

	stats cycleStats
}

// New 创建引擎并校验配置与依赖。
func New(cfg Config, col Collaborators) (*Engine, error) {
	base, quote, err := splitPair(cfg.Pair)
	if err != nil {
		return nil, err
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if col.Feed == nil || col.Prices == nil || col.Balances == nil ||
		col.Budget == nil || col.Orders == nil {
		return nil, errors.New("all collaborators are required")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if col.Logger == nil {
		col.Logger = logger.Nop()
	}
	if col.Clock == nil {
		col.Clock = SystemClock
	}

	return &Engine{
		cfg:        cfg,
		baseAsset:  base,
		quoteAsset: quote,
		feed:       col.Feed,
		prices:     col.Prices,
		balances:   col.Balances,
		budget:     col.Budget,
		orders:     col.Orders,
		log:        col.Logger,
		mon:        col.Monitor,
		clock:      col.Clock,
		params:     cfg.Params,
		state:      StateIdle,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}, nil
}

// Start launches the driving loop. The loop is the only goroutine that runs
// refresh cycles.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return errors.New("engine already started")
	}
	e.running = true
	e.mu.Unlock()

	e.log.Info("quoting engine starting",
		zap.String("pair", e.cfg.Pair),
		zap.Duration("refresh_interval", e.snapshotParams().RefreshInterval))

	go e.run()
	return nil
}

// Stop halts the loop and cancels resting orders best-effort.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	e.mu.Unlock()

	close(e.stopChan)
	select {
	case <-e.doneChan:
	case <-time.After(10 * time.Second):
		e.log.Warn("timeout waiting for quoting loop to stop")
	}

	e.cancelAll()
	e.log.Info("quoting engine stopped")
}

func (e *Engine) run() {
	defer close(e.doneChan)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopChan:
			return
		case <-ticker.C:
			e.onTick(e.clock.Now())
		}
	}
}

// onTick runs a refresh cycle when the wall clock has reached
// lastRefresh + refreshInterval.
func (e *Engine) onTick(now time.Time) {
	e.mu.RLock()
	due := !now.Before(e.lastRefresh.Add(e.params.RefreshInterval))
	e.mu.RUnlock()
	if !due {
		return
	}
	e.refreshCycle(now)
}

// refreshCycle is one cancel-existing → rebuild → resubmit pass. Every exit
// path, including a panicking collaborator, advances lastRefresh so the
// scheduler can never fall into a tight retry storm and never halts.
func (e *Engine) refreshCycle(now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("refresh cycle panicked",
				zap.Any("panic", r),
				zap.String("state", e.State().String()))
			e.stats.addError()
		}
		e.setState(StateIdle)
		e.mu.Lock()
		e.lastRefresh = now
		e.mu.Unlock()
		e.mon.RecordCycle()
		e.stats.markCycle(now)
	}()

	e.cancelAll()

	e.setState(StateBuildingProposal)
	proposal, err := e.createProposal()
	if err != nil {
		// 可恢复状态（窗口未就绪 / 无参考价），本周期不下单
		e.log.Warn("skipping cycle", zap.Error(err))
		e.skip()
		return
	}
	if len(proposal) == 0 {
		e.log.Warn("proposal empty, nothing to quote")
		e.skip()
		return
	}
	e.stats.addQuotes(len(proposal))
	e.mon.RecordQuotes(len(proposal))

	e.setState(StateAdjustingBudget)
	adjusted, err := e.budget.Adjust(proposal)
	if err != nil {
		e.log.Error("budget adjustment failed", zap.Error(err))
		e.stats.addError()
		adjusted = nil
	}
	if len(adjusted) == 0 {
		// all-or-none：任何一条无法满足则整批丢弃
		e.log.Warn("proposal rejected by budget adjuster",
			zap.Int("orders", len(proposal)))
		e.stats.addBudgetRejections(len(proposal))
		e.mon.RecordBudgetRejections(len(proposal))
		return
	}

	e.setState(StateFiltering)
	filter := strategy.ProfitFilter{Source: e.prices, Pair: e.cfg.Pair}
	accepted := make([]strategy.Quote, 0, len(adjusted))
	for _, q := range adjusted {
		if filter.Accept(q) {
			accepted = append(accepted, q)
			continue
		}
		e.log.Info("order rejected by profit filter",
			zap.String("side", string(q.Side)),
			zap.String("price", q.Price.String()))
		e.stats.addProfitRejection()
		e.mon.RecordProfitRejection()
	}

	e.setState(StateSubmitting)
	for _, q := range accepted {
		id, err := e.orders.Submit(e.cfg.Pair, q.Side, q.Amount, q.Price)
		if err != nil {
			e.log.Error("order submission failed",
				zap.String("side", string(q.Side)),
				zap.String("price", q.Price.String()),
				zap.String("amount", q.Amount.String()),
				zap.Error(err))
			e.stats.addError()
			continue
		}
		e.stats.addSubmitted()
		e.mon.RecordOrderSubmitted()
		e.log.Info("order placed",
			zap.String("order_id", id),
			zap.String("side", string(q.Side)),
			zap.String("price", q.Price.String()),
			zap.String("amount", q.Amount.String()))
	}
}

// createProposal builds the two candidate maker orders. Balances are read
// fresh every call; prior fills may have changed them.
func (e *Engine) createProposal() ([]strategy.Quote, error) {
	if !e.feed.Ready() {
		return nil, ErrFeedNotReady
	}
	ref, err := e.prices.MidPrice(e.cfg.Pair)
	if err != nil || !ref.IsPositive() {
		return nil, ErrNoReferencePrice
	}

	quoteAvail, err := e.balances.Available(e.quoteAsset)
	if err != nil {
		return nil, fmt.Errorf("query %s balance: %w", e.quoteAsset, err)
	}
	baseAvail, err := e.balances.Available(e.baseAsset)
	if err != nil {
		return nil, fmt.Errorf("query %s balance: %w", e.baseAsset, err)
	}

	params := e.snapshotParams()
	spread, err := strategy.EstimateSpread(e.feed.RecentHigh(), e.feed.RecentLow(), ref, params.Bounds)
	if err != nil {
		return nil, fmt.Errorf("estimate spread: %w", err)
	}
	e.mon.SetSpread(spread.InexactFloat64())
	e.mon.SetMidPrice(ref.InexactFloat64())

	sizer, err := strategy.NewSizer(params.BaseOrderAmount, params.RiskFraction)
	if err != nil {
		return nil, err
	}
	buyAmount := sizer.SizeBuy(quoteAvail, ref)
	sellAmount := sizer.SizeSell(baseAvail)

	quotes := strategy.BuildQuotes(ref, spread, buyAmount, sellAmount)
	e.log.Debug("proposal built",
		zap.String("ref_price", ref.String()),
		zap.String("spread", spread.String()),
		zap.Int("orders", len(quotes)))
	return quotes, nil
}

// cancelAll 撤销全部活跃订单；单笔失败只记录，后续周期会重试。
func (e *Engine) cancelAll() {
	ids, err := e.orders.ListActive(e.cfg.Pair)
	if err != nil {
		e.log.Warn("listing active orders failed", zap.Error(err))
		e.stats.addError()
		return
	}
	for _, id := range ids {
		if err := e.orders.Cancel(e.cfg.Pair, id); err != nil {
			e.log.Warn("cancel failed",
				zap.String("order_id", id),
				zap.Error(err))
			e.stats.addCancelFailure()
			e.mon.RecordCancelFailure()
			continue
		}
		e.stats.addCanceled()
		e.mon.RecordOrderCanceled()
	}
}

// ApplyParams swaps the quoting parameters between cycles. Invalid updates
// are rejected and the running parameters kept.
func (e *Engine) ApplyParams(p Params) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("rejected params update: %w", err)
	}
	e.mu.Lock()
	e.params = p
	e.mu.Unlock()
	e.log.Info("quoting parameters updated",
		zap.Duration("refresh_interval", p.RefreshInterval),
		zap.String("base_order_amount", p.BaseOrderAmount.String()))
	return nil
}

func (e *Engine) snapshotParams() Params {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.params
}

func (e *Engine) setState(s CycleState) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

func (e *Engine) skip() {
	e.stats.addSkip()
	e.mon.RecordSkippedCycle()
}

// State returns the current cycle stage.
func (e *Engine) State() CycleState {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// LastRefresh returns when the last cycle finished.
func (e *Engine) LastRefresh() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastRefresh
}

// Pair returns the managed trading pair.
func (e *Engine) Pair() string { return e.cfg.Pair }

// Stats returns a copy of the cycle counters.
func (e *Engine) Stats() Stats {
	return e.stats.snapshot()
}

func splitPair(pair string) (base, quote string, err error) {
	parts := strings.Split(pair, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("pair %q must be BASE-QUOTE", pair)
	}
	return parts[0], parts[1], nil
}
