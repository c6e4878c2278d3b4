// Package kite implements the terminal connection against a Zerodha Kite
// session, for accounts routed through Kite instead of a MetaTrader
// terminal. Quotes, candles, orders and positions go through the official
// Kite Connect REST API.
package kite

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"

	"github.com/enzoh7/graphist-analyst/internal/logger"
	"github.com/enzoh7/graphist-analyst/internal/terminal"
	"github.com/enzoh7/graphist-analyst/internal/types"
)

type Params struct {
	APIKey      string
	AccessToken string
	Exchange    string
}

type Conn struct {
	kc        *kiteconnect.Client
	exchange  string
	mapper    *instrumentMapper
	connected bool
}

var _ terminal.Conn = (*Conn)(nil)

func New(p Params) *Conn {
	kc := kiteconnect.New(p.APIKey)
	if p.AccessToken != "" {
		kc.SetAccessToken(p.AccessToken)
	}
	exchange := p.Exchange
	if exchange == "" {
		exchange = "NSE"
	}
	return &Conn{kc: kc, exchange: exchange, mapper: newInstrumentMapper()}
}

// Connect verifies the session by fetching the user profile.
func (c *Conn) Connect(ctx context.Context) error {
	profile, err := c.kc.GetUserProfile()
	if err != nil {
		c.connected = false
		return fmt.Errorf("kite session check failed: %w", err)
	}
	c.connected = true
	logger.Info(ctx, "Kite session active", "user", profile.UserID)
	return nil
}

func (c *Conn) Connected() bool { return c.connected }

// loadInstruments fills the symbol/token maps from the full instrument dump.
// The dump is large, so it is fetched once and reused.
func (c *Conn) loadInstruments(ctx context.Context) error {
	if c.mapper.size() > 0 {
		return nil
	}
	instruments, err := c.kc.GetInstruments()
	if err != nil {
		return fmt.Errorf("failed to fetch instruments: %w", err)
	}
	for _, inst := range instruments {
		if inst.Exchange != c.exchange {
			continue
		}
		c.mapper.add(inst.Tradingsymbol, uint32(inst.InstrumentToken), inst.TickSize)
	}
	logger.Debug(ctx, "Instrument dump loaded", "exchange", c.exchange, "count", c.mapper.size())
	return nil
}

func (c *Conn) ListSymbols(ctx context.Context) ([]types.ListedSymbol, error) {
	if err := c.loadInstruments(ctx); err != nil {
		return nil, err
	}
	names := c.mapper.symbols()
	listed := make([]types.ListedSymbol, 0, len(names))
	for _, name := range names {
		listed = append(listed, types.ListedSymbol{Name: name, Visible: true})
	}
	return listed, nil
}

// SelectSymbol is a no-op: Kite symbols are always quotable once listed.
func (c *Conn) SelectSymbol(ctx context.Context, name string) error { return nil }

func (c *Conn) GetTick(ctx context.Context, name string) (*types.Tick, error) {
	key := c.exchange + ":" + name
	quotes, err := c.kc.GetQuote(key)
	if err != nil {
		// Unknown instruments come back as API errors; treat them as absent.
		if strings.Contains(strings.ToLower(err.Error()), "instrument") {
			return nil, nil
		}
		return nil, err
	}
	q, ok := quotes[key]
	if !ok {
		return nil, nil
	}

	bid, ask := q.LastPrice, q.LastPrice
	if len(q.Depth.Buy) > 0 && q.Depth.Buy[0].Price > 0 {
		bid = q.Depth.Buy[0].Price
	}
	if len(q.Depth.Sell) > 0 && q.Depth.Sell[0].Price > 0 {
		ask = q.Depth.Sell[0].Price
	}
	if bid == 0 && ask == 0 {
		return nil, nil
	}
	return &types.Tick{
		Bid:    bid,
		Ask:    ask,
		Time:   q.Timestamp.Unix(),
		Volume: float64(q.Volume),
	}, nil
}

func (c *Conn) GetSymbolInfo(ctx context.Context, name string) (*types.SymbolInfo, error) {
	if err := c.loadInstruments(ctx); err != nil {
		return nil, err
	}
	tickSize, ok := c.mapper.tickSize(name)
	if !ok {
		return nil, nil
	}
	// Kite does not advertise fulfillment modes; the normalizer falls back
	// to the configured default.
	return &types.SymbolInfo{Name: name, Digits: digitsFromTickSize(tickSize)}, nil
}

// digitsFromTickSize derives decimal precision from the instrument tick size
// (0.05 -> 2 digits).
func digitsFromTickSize(tickSize float64) int {
	if tickSize <= 0 {
		return 2
	}
	digits := 0
	for tickSize < 0.999999 && digits < 8 {
		tickSize *= 10
		digits++
	}
	return digits
}

// kiteIntervals maps bridge timeframe tags to Kite candle intervals. Kite has
// no 4-hour or weekly interval; those degrade to the nearest available one.
var kiteIntervals = map[string]string{
	"1m":  "minute",
	"5m":  "5minute",
	"15m": "15minute",
	"30m": "30minute",
	"1h":  "60minute",
	"4h":  "60minute",
	"1d":  "day",
	"1w":  "day",
}

// timeframeSpan is the wall-clock span of one candle, used to size the
// historical window for a requested count.
var timeframeSpan = map[string]time.Duration{
	"1m":  time.Minute,
	"5m":  5 * time.Minute,
	"15m": 15 * time.Minute,
	"30m": 30 * time.Minute,
	"1h":  time.Hour,
	"4h":  4 * time.Hour,
	"1d":  24 * time.Hour,
	"1w":  7 * 24 * time.Hour,
}

func (c *Conn) GetCandles(ctx context.Context, name, timeframe string, count int) ([]types.Candle, error) {
	if err := c.loadInstruments(ctx); err != nil {
		return nil, err
	}
	token, ok := c.mapper.token(name)
	if !ok {
		return nil, nil
	}

	interval, ok := kiteIntervals[timeframe]
	if !ok {
		interval = "minute"
	}
	span := timeframeSpan[timeframe]
	if span == 0 {
		span = time.Minute
	}

	to := time.Now()
	// Pad the window: markets are closed for part of any wall-clock span.
	from := to.Add(-time.Duration(count) * span * 3)

	data, err := c.kc.GetHistoricalData(int(token), interval, from, to, false, false)
	if err != nil {
		return nil, fmt.Errorf("historical data fetch failed: %w", err)
	}

	candles := make([]types.Candle, 0, len(data))
	for _, d := range data {
		candles = append(candles, types.Candle{
			Ts:    d.Date.Unix(),
			Open:  d.Open,
			High:  d.High,
			Low:   d.Low,
			Close: d.Close,
			Vol:   float64(d.Volume),
		})
	}
	if len(candles) > count {
		candles = candles[len(candles)-count:]
	}
	return candles, nil
}

func (c *Conn) SubmitOrder(ctx context.Context, spec types.OrderSpec) (*types.OrderResult, error) {
	params := kiteconnect.OrderParams{
		Exchange:        c.exchange,
		Tradingsymbol:   spec.Symbol,
		Product:         kiteconnect.ProductMIS,
		OrderType:       kiteconnect.OrderTypeMarket,
		Validity:        kiteconnect.ValidityDay,
		Quantity:        int(math.Round(spec.Volume)),
		TransactionType: kiteconnect.TransactionTypeBuy,
		Tag:             spec.Tag,
	}
	if strings.EqualFold(spec.Side, "sell") {
		params.TransactionType = kiteconnect.TransactionTypeSell
	}
	if spec.HasSL {
		params.Stoploss = spec.SL
	}
	if spec.HasTP {
		params.Squareoff = spec.TP
	}

	resp, err := c.kc.PlaceOrder(kiteconnect.VarietyRegular, params)
	if err != nil {
		// Broker-side rejections carry the reason in the API error.
		return &types.OrderResult{Retcode: 0, Comment: err.Error()}, nil
	}
	return &types.OrderResult{Retcode: terminal.RetcodeDone, OrderID: resp.OrderID, Comment: "ok"}, nil
}

func (c *Conn) ListPositions(ctx context.Context) ([]types.Position, error) {
	positions, err := c.kc.GetPositions()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch positions: %w", err)
	}
	out := make([]types.Position, 0, len(positions.Net))
	for _, p := range positions.Net {
		if p.Quantity == 0 {
			continue
		}
		side := "buy"
		if p.Quantity < 0 {
			side = "sell"
		}
		out = append(out, types.Position{
			Ticket:  int64(p.InstrumentToken),
			Symbol:  p.Tradingsymbol,
			Side:    side,
			Volume:  math.Abs(float64(p.Quantity)),
			Open:    p.AveragePrice,
			Current: p.LastPrice,
			Profit:  p.PnL,
		})
	}
	return out, nil
}

// Authenticate re-keys the session: login is the API key, password the
// request token from the Kite login flow, server the API secret.
func (c *Conn) Authenticate(ctx context.Context, login, password, server string) error {
	kc := kiteconnect.New(login)
	session, err := kc.GenerateSession(password, server)
	if err != nil {
		c.connected = false
		return fmt.Errorf("kite authentication failed: %w", err)
	}
	kc.SetAccessToken(session.AccessToken)
	c.kc = kc
	c.mapper.clear()
	c.connected = true
	return nil
}

func (c *Conn) AccountInfo(ctx context.Context) (*types.AccountInfo, error) {
	profile, err := c.kc.GetUserProfile()
	if err != nil {
		return nil, nil
	}
	return &types.AccountInfo{Company: "Zerodha " + profile.Broker, Currency: "INR"}, nil
}
