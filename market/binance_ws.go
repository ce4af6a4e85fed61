package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pmm-quoter-go/infrastructure/logger"
)

// BinanceSpotWSEndpoint 现货组合流入口。
const BinanceSpotWSEndpoint = "wss://stream.binance.com:9443"

// KlineStream subscribes to a Binance combined kline stream and forwards
// closed candles. Only the candle source is Binance; the quoting venue can
// be elsewhere.
type KlineStream struct {
	Endpoint      string // 默认 BinanceSpotWSEndpoint
	Symbol        string // 交易所格式，如 ETHUSDT
	Interval      string // 如 1m
	Dialer        *websocket.Dialer
	ReconnectWait time.Duration
	Log           *logger.Logger
}

func NewKlineStream(symbol, interval string, log *logger.Logger) *KlineStream {
	if log == nil {
		log = logger.Nop()
	}
	return &KlineStream{
		Endpoint:      BinanceSpotWSEndpoint,
		Symbol:        symbol,
		Interval:      interval,
		Dialer:        websocket.DefaultDialer,
		ReconnectWait: 2 * time.Second,
		Log:           log,
	}
}

// Run connects and reads until the context ends, reconnecting on errors.
func (s *KlineStream) Run(ctx context.Context, onCandle func(Candle)) error {
	if s.Symbol == "" || s.Interval == "" {
		return fmt.Errorf("kline stream requires symbol and interval")
	}
	for {
		if err := s.readLoop(ctx, onCandle); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.Log.Warn("kline stream disconnected",
				zap.Error(err),
				zap.Duration("retry_in", s.ReconnectWait))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.ReconnectWait):
		}
	}
}

func (s *KlineStream) readLoop(ctx context.Context, onCandle func(Candle)) error {
	stream := strings.ToLower(s.Symbol) + "@kline_" + s.Interval
	u := url.URL{
		Scheme: "wss",
		Host:   strings.TrimPrefix(s.Endpoint, "wss://"),
		Path:   "/stream",
	}
	q := u.Query()
	q.Set("streams", stream)
	u.RawQuery = q.Encode()

	conn, _, err := s.Dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", u.Host, err)
	}
	defer conn.Close()

	// 断开读循环：ctx 结束时主动关闭连接
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-stop:
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		candle, closed, err := ParseKlineMessage(message)
		if err != nil {
			s.Log.Debug("unparsable kline message", zap.Error(err))
			continue
		}
		if closed && onCandle != nil {
			onCandle(candle)
		}
	}
}

// combinedMessage 对应 binance combined stream 包装。
type combinedMessage struct {
	Stream string          `json:"stream"`
	Data   json.RawMessage `json:"data"`
}

type klineEvent struct {
	EventType string       `json:"e"`
	Symbol    string       `json:"s"`
	Kline     klinePayload `json:"k"`
}

type klinePayload struct {
	OpenTime int64  `json:"t"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Closed   bool   `json:"x"`
}

// ParseKlineMessage 解析 combined stream 的 kline 消息。
// closed 表示该根 K 线已经闭合。
func ParseKlineMessage(raw []byte) (c Candle, closed bool, err error) {
	var msg combinedMessage
	if err = json.Unmarshal(raw, &msg); err != nil {
		return
	}
	var ev klineEvent
	if err = json.Unmarshal(msg.Data, &ev); err != nil {
		return
	}
	if ev.EventType != "kline" {
		err = fmt.Errorf("unexpected event type %q", ev.EventType)
		return
	}
	k := ev.Kline
	if c.Open, err = decimal.NewFromString(k.Open); err != nil {
		return
	}
	if c.High, err = decimal.NewFromString(k.High); err != nil {
		return
	}
	if c.Low, err = decimal.NewFromString(k.Low); err != nil {
		return
	}
	if c.Close, err = decimal.NewFromString(k.Close); err != nil {
		return
	}
	c.Ts = time.UnixMilli(k.OpenTime).UTC()
	closed = k.Closed
	return
}
