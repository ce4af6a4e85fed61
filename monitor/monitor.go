// Package monitor exposes Prometheus metrics for the quoting engine.
package monitor

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Monitor 指标收集器。所有方法对 nil 接收者安全，
// 便于在测试/精简部署中直接传 nil。
type Monitor struct {
	registry *prometheus.Registry

	cyclesTotal     prometheus.Counter
	cyclesSkipped   prometheus.Counter
	quotesGenerated prometheus.Counter

	ordersSubmitted  prometheus.Counter
	ordersCanceled   prometheus.Counter
	cancelFailures   prometheus.Counter
	budgetRejections prometheus.Counter
	profitRejections prometheus.Counter

	spread      prometheus.Gauge
	midPrice    prometheus.Gauge
	totalProfit prometheus.Gauge
}

// Config 监控配置
type Config struct {
	Namespace string
	Subsystem string
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		Namespace: "pmm",
		Subsystem: "quoter",
	}
}

// New 创建 Monitor 实例（私有 registry，避免全局污染）。
func New(cfg Config) *Monitor {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Monitor{
		registry: reg,

		cyclesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "refresh_cycles_total",
			Help:      "刷新周期总数",
		}),
		cyclesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "refresh_cycles_skipped_total",
			Help:      "未产生报价的周期数（窗口未就绪/无参考价等）",
		}),
		quotesGenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "quotes_generated_total",
			Help:      "生成的候选报价总数",
		}),
		ordersSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_submitted_total",
			Help:      "提交成功的订单总数",
		}),
		ordersCanceled: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "orders_canceled_total",
			Help:      "撤销成功的订单总数",
		}),
		cancelFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "order_cancel_failures_total",
			Help:      "撤单失败次数（容忍，后续周期重试）",
		}),
		budgetRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "budget_rejections_total",
			Help:      "被预算校验整批拒绝的订单数",
		}),
		profitRejections: factory.NewCounter(prometheus.CounterOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "profit_rejections_total",
			Help:      "被盈利过滤拒绝的订单数",
		}),
		spread: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "current_spread_fraction",
			Help:      "当前报价 spread（相对参考价）",
		}),
		midPrice: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "mid_price",
			Help:      "最近一次读取的参考中间价",
		}),
		totalProfit: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: cfg.Namespace,
			Subsystem: cfg.Subsystem,
			Name:      "realized_profit",
			Help:      "已实现盈亏（计价资产）",
		}),
	}
}

func (m *Monitor) RecordCycle() {
	if m == nil {
		return
	}
	m.cyclesTotal.Inc()
}

func (m *Monitor) RecordSkippedCycle() {
	if m == nil {
		return
	}
	m.cyclesSkipped.Inc()
}

func (m *Monitor) RecordQuotes(n int) {
	if m == nil {
		return
	}
	m.quotesGenerated.Add(float64(n))
}

func (m *Monitor) RecordOrderSubmitted() {
	if m == nil {
		return
	}
	m.ordersSubmitted.Inc()
}

func (m *Monitor) RecordOrderCanceled() {
	if m == nil {
		return
	}
	m.ordersCanceled.Inc()
}

func (m *Monitor) RecordCancelFailure() {
	if m == nil {
		return
	}
	m.cancelFailures.Inc()
}

func (m *Monitor) RecordBudgetRejections(n int) {
	if m == nil {
		return
	}
	m.budgetRejections.Add(float64(n))
}

func (m *Monitor) RecordProfitRejection() {
	if m == nil {
		return
	}
	m.profitRejections.Inc()
}

func (m *Monitor) SetSpread(v float64) {
	if m == nil {
		return
	}
	m.spread.Set(v)
}

func (m *Monitor) SetMidPrice(v float64) {
	if m == nil {
		return
	}
	m.midPrice.Set(v)
}

func (m *Monitor) SetTotalProfit(v float64) {
	if m == nil {
		return
	}
	m.totalProfit.Set(v)
}

// Handler returns the scrape endpoint for the private registry.
func (m *Monitor) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve 启动指标服务器；addr 为空则不启动。
func Serve(addr string, m *Monitor) {
	if addr == "" || m == nil {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	go func() {
		_ = http.ListenAndServe(addr, mux)
	}()
}
