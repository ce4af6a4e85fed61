package market

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pmm-quoter-go/infrastructure/logger"
)

// CandleSource delivers closed candles; implemented by KlineStream.
type CandleSource interface {
	Run(ctx context.Context, onCandle func(Candle)) error
}

// Feed maintains the rolling candle window and fans closed candles out to
// subscribers. It is the market-data collaborator of the quoting engine:
// Ready stays false until the configured window is populated.
type Feed struct {
	window *Window
	log    *logger.Logger

	mu   sync.RWMutex
	subs []func(Candle)

	cancel context.CancelFunc
	done   chan struct{}
}

func NewFeed(windowLength int, log *logger.Logger) *Feed {
	if log == nil {
		log = logger.Nop()
	}
	return &Feed{
		window: NewWindow(windowLength),
		log:    log,
	}
}

// Subscribe registers a callback invoked for every closed candle.
// Register before Start; subscription is not synchronized with delivery.
func (f *Feed) Subscribe(fn func(Candle)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, fn)
}

// OnCandle ingests one closed candle.
func (f *Feed) OnCandle(c Candle) {
	f.window.Push(c)
	f.log.Debug("candle closed",
		zap.String("high", c.High.String()),
		zap.String("low", c.Low.String()),
		zap.String("close", c.Close.String()),
		zap.Time("ts", c.Ts))

	f.mu.RLock()
	subs := f.subs
	f.mu.RUnlock()
	for _, fn := range subs {
		fn(c)
	}
}

// Ready reports whether enough history exists to quote.
func (f *Feed) Ready() bool { return f.window.Ready() }

// RecentHigh returns the latest candle's high.
func (f *Feed) RecentHigh() decimal.Decimal { return f.window.RecentHigh() }

// RecentLow returns the latest candle's low.
func (f *Feed) RecentLow() decimal.Decimal { return f.window.RecentLow() }

// Window exposes the underlying window for read-only reporting.
func (f *Feed) Window() *Window { return f.window }

// Start runs the candle source until Stop or context end.
func (f *Feed) Start(ctx context.Context, src CandleSource) {
	runCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)
		if err := src.Run(runCtx, f.OnCandle); err != nil && runCtx.Err() == nil {
			f.log.Error("candle source terminated", zap.Error(err))
		}
	}()
}

// Stop tears down the market-data subscription.
func (f *Feed) Stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
}
