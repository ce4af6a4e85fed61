package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"pmm-quoter-go/config"
	"pmm-quoter-go/gateway"
	"pmm-quoter-go/infrastructure/logger"
	"pmm-quoter-go/internal/engine"
	"pmm-quoter-go/market"
	"pmm-quoter-go/monitor"
	"pmm-quoter-go/pnl"
	"pmm-quoter-go/status"
	"pmm-quoter-go/strategy"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	statusEvery := flag.Duration("statusInterval", time.Minute, "状态快照打印间隔，0 关闭")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zlog.Close()

	mon := monitor.New(monitor.DefaultConfig())
	if cfg.Metrics.Addr != "" {
		monitor.Serve(cfg.Metrics.Addr, mon)
		zlog.Info("metrics listening", zap.String("addr", cfg.Metrics.Addr))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 纸面交易 venue，用初始余额入金
	venue := gateway.NewPaperGateway(zlog.Named("paper"))
	for asset, amount := range cfg.Paper.InitialBalances {
		venue.Deposit(asset, config.Decimal(amount))
	}

	// K 线行情：WS 推送喂给窗口，收盘价同步为 venue 中间价
	feed := market.NewFeed(cfg.Candles.WindowLength, zlog.Named("feed"))
	feed.Subscribe(func(c market.Candle) {
		venue.SetMid(cfg.Pair, c.Close)
		if f, _ := c.Close.Float64(); f > 0 {
			mon.SetMidPrice(f)
		}
	})
	stream := market.NewKlineStream(cfg.Candles.Symbol, cfg.Candles.Interval, zlog.Named("ws"))
	feed.Start(ctx, stream)
	defer feed.Stop()

	tracker := pnl.NewTracker(zlog.Named("pnl"))
	go tracker.Run(ctx, venue.Fills())

	eng, err := engine.New(engine.Config{
		Pair:   cfg.Pair,
		Params: paramsFromStrategy(cfg.Strategy),
	}, engine.Collaborators{
		Feed:     feed,
		Prices:   venue,
		Balances: venue,
		Budget:   gateway.BalanceBudget{Balances: venue, Pair: cfg.Pair},
		Orders:   venue,
		Logger:   zlog.Named("engine"),
		Monitor:  mon,
	})
	if err != nil {
		log.Fatalf("初始化引擎失败: %v", err)
	}
	if err := eng.Start(); err != nil {
		log.Fatalf("启动引擎失败: %v", err)
	}
	defer eng.Stop()

	// 热更新：仅策略参数可在运行中调整
	watcher := config.Watcher{Path: *cfgPath, Cooldown: time.Second, Log: zlog.Named("config")}
	go func() {
		err := watcher.Start(ctx, func(next config.AppConfig) {
			if err := eng.ApplyParams(paramsFromStrategy(next.Strategy)); err != nil {
				zlog.Warn("params update rejected", zap.Error(err))
			}
		})
		if err != nil && ctx.Err() == nil {
			zlog.Warn("config watcher stopped", zap.Error(err))
		}
	}()

	reporter := status.Reporter{
		Pair:     cfg.Pair,
		Exchange: cfg.Exchange,
		Balances: venue,
		Orders:   venue,
		Profit:   tracker,
		Cycle:    cycleView{eng},
		Window:   feed.Window(),
	}
	if *statusEvery > 0 {
		go statusLoop(ctx, *statusEvery, reporter, tracker, mon)
	}

	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		zlog.Debug("sd_notify unavailable", zap.Error(err))
	}
	zlog.Info("quoter started",
		zap.String("pair", cfg.Pair),
		zap.String("exchange", cfg.Exchange),
		zap.String("candles", cfg.Candles.Symbol+"@"+cfg.Candles.Interval))

	<-ctx.Done()
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)
	zlog.Info("quoter stopping", zap.String("final_pnl", tracker.TotalProfit().String()))
}

func paramsFromStrategy(s config.StrategyConfig) engine.Params {
	return engine.Params{
		RefreshInterval: s.RefreshInterval(),
		BaseOrderAmount: config.Decimal(s.BaseOrderAmount),
		RiskFraction:    config.Decimal(s.RiskFraction),
		Bounds: strategy.SpreadBounds{
			Min: config.Decimal(s.MinSpread),
			Max: config.Decimal(s.MaxSpread),
		},
	}
}

func statusLoop(ctx context.Context, every time.Duration, r status.Reporter, tracker *pnl.Tracker, mon *monitor.Monitor) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f, _ := tracker.TotalProfit().Float64()
			mon.SetTotalProfit(f)
			os.Stdout.WriteString("\n" + r.String())
		}
	}
}

type cycleView struct{ eng *engine.Engine }

func (c cycleView) StateName() string      { return c.eng.State().String() }
func (c cycleView) LastRefresh() time.Time { return c.eng.LastRefresh() }
