// Package mt5 talks to the colocated MetaTrader gateway process over its
// JSON/HTTP interface. The gateway is the only process with a native
// terminal session; this adapter is a thin translation layer.
package mt5

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/enzoh7/graphist-analyst/internal/api"
	"github.com/enzoh7/graphist-analyst/internal/logger"
	"github.com/enzoh7/graphist-analyst/internal/terminal"
	"github.com/enzoh7/graphist-analyst/internal/types"
)

type Params struct {
	GatewayURL string
	Timeout    time.Duration
}

type Conn struct {
	client    *api.Client
	connected bool
}

var _ terminal.Conn = (*Conn)(nil)

func New(p Params) *Conn {
	timeout := p.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Conn{
		client: api.NewClient(
			api.WithBaseURL(p.GatewayURL),
			api.WithTimeout(timeout),
			api.WithLogging(true),
		),
	}
}

// Connect probes the gateway and records liveness. The probe retries with
// backoff since the gateway process often starts alongside the bridge. A
// dead gateway is not fatal here; the dispatcher reports it through the
// health action.
func (c *Conn) Connect(ctx context.Context) error {
	var out struct {
		Connected bool `json:"connected"`
	}
	req := api.NewRequest(http.MethodGet, "/ping").WithContext(ctx)
	resp, err := c.client.DoWithRetry(req, nil)
	if err != nil {
		c.connected = false
		return fmt.Errorf("terminal gateway unreachable: %w", err)
	}
	if err := resp.ParseJSON(&out); err != nil {
		c.connected = false
		return err
	}
	c.connected = out.Connected
	if !c.connected {
		return fmt.Errorf("terminal gateway is up but reports no terminal session")
	}
	logger.Info(ctx, "Terminal gateway connected")
	return nil
}

func (c *Conn) Connected() bool { return c.connected }

func (c *Conn) ListSymbols(ctx context.Context) ([]types.ListedSymbol, error) {
	var out struct {
		Symbols []struct {
			Name    string `json:"name"`
			Visible bool   `json:"visible"`
		} `json:"symbols"`
	}
	resp, err := c.client.GET(ctx, "/symbols")
	if err != nil {
		return nil, err
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	symbols := make([]types.ListedSymbol, 0, len(out.Symbols))
	for _, s := range out.Symbols {
		symbols = append(symbols, types.ListedSymbol{Name: s.Name, Visible: s.Visible})
	}
	return symbols, nil
}

func (c *Conn) SelectSymbol(ctx context.Context, name string) error {
	_, err := c.client.POST(ctx, "/symbol_select", map[string]string{"symbol": name})
	return err
}

func (c *Conn) GetTick(ctx context.Context, name string) (*types.Tick, error) {
	var out struct {
		Tick *struct {
			Bid    float64 `json:"bid"`
			Ask    float64 `json:"ask"`
			Time   int64   `json:"time"`
			Volume float64 `json:"volume"`
		} `json:"tick"`
	}
	resp, err := c.client.GET(ctx, "/tick?symbol="+url.QueryEscape(name))
	if err != nil {
		return nil, err
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	if out.Tick == nil {
		return nil, nil
	}
	return &types.Tick{Bid: out.Tick.Bid, Ask: out.Tick.Ask, Time: out.Tick.Time, Volume: out.Tick.Volume}, nil
}

func (c *Conn) GetSymbolInfo(ctx context.Context, name string) (*types.SymbolInfo, error) {
	var out struct {
		Info *struct {
			Digits       int      `json:"digits"`
			FillingModes []string `json:"filling_modes"`
		} `json:"info"`
	}
	resp, err := c.client.GET(ctx, "/symbol_info?symbol="+url.QueryEscape(name))
	if err != nil {
		return nil, err
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	if out.Info == nil {
		return nil, nil
	}
	return &types.SymbolInfo{Name: name, Digits: out.Info.Digits, FillingModes: out.Info.FillingModes}, nil
}

func (c *Conn) GetCandles(ctx context.Context, name, timeframe string, count int) ([]types.Candle, error) {
	var out struct {
		Rates []struct {
			Time       int64   `json:"time"`
			Open       float64 `json:"open"`
			High       float64 `json:"high"`
			Low        float64 `json:"low"`
			Close      float64 `json:"close"`
			TickVolume float64 `json:"tick_volume"`
		} `json:"rates"`
	}
	u := fmt.Sprintf("/rates?symbol=%s&timeframe=%s&count=%d", url.QueryEscape(name), url.QueryEscape(timeframe), count)
	resp, err := c.client.GET(ctx, u)
	if err != nil {
		return nil, err
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	candles := make([]types.Candle, 0, len(out.Rates))
	for _, r := range out.Rates {
		candles = append(candles, types.Candle{
			Ts:    r.Time,
			Open:  r.Open,
			High:  r.High,
			Low:   r.Low,
			Close: r.Close,
			Vol:   r.TickVolume,
		})
	}
	return candles, nil
}

func (c *Conn) SubmitOrder(ctx context.Context, spec types.OrderSpec) (*types.OrderResult, error) {
	body := map[string]interface{}{
		"symbol":    spec.Symbol,
		"type":      spec.Side,
		"volume":    spec.Volume,
		"price":     spec.Price,
		"filling":   spec.Filling,
		"magic":     spec.Magic,
		"comment":   spec.Tag,
		"type_time": "GTC",
	}
	if spec.HasSL {
		body["sl"] = spec.SL
	}
	if spec.HasTP {
		body["tp"] = spec.TP
	}

	var out struct {
		Result *struct {
			Retcode int    `json:"retcode"`
			Order   int64  `json:"order"`
			Comment string `json:"comment"`
		} `json:"result"`
	}
	resp, err := c.client.POST(ctx, "/order_send", body)
	if err != nil {
		return nil, err
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	if out.Result == nil {
		return nil, nil
	}
	return &types.OrderResult{
		Retcode: out.Result.Retcode,
		OrderID: fmt.Sprintf("%d", out.Result.Order),
		Comment: out.Result.Comment,
	}, nil
}

func (c *Conn) ListPositions(ctx context.Context) ([]types.Position, error) {
	var out struct {
		Positions []types.Position `json:"positions"`
	}
	resp, err := c.client.GET(ctx, "/positions")
	if err != nil {
		return nil, err
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	return out.Positions, nil
}

func (c *Conn) Authenticate(ctx context.Context, login, password, server string) error {
	var out struct {
		OK      bool   `json:"ok"`
		Message string `json:"message"`
	}
	resp, err := c.client.POST(ctx, "/login", map[string]string{
		"login":    login,
		"password": password,
		"server":   server,
	})
	if err != nil {
		c.connected = false
		return err
	}
	if err := resp.ParseJSON(&out); err != nil {
		return err
	}
	if !out.OK {
		c.connected = false
		if out.Message == "" {
			out.Message = "authentication rejected by terminal"
		}
		return fmt.Errorf("%s", out.Message)
	}
	c.connected = true
	return nil
}

func (c *Conn) AccountInfo(ctx context.Context) (*types.AccountInfo, error) {
	var out struct {
		Account *types.AccountInfo `json:"account"`
	}
	resp, err := c.client.GET(ctx, "/account")
	if err != nil {
		return nil, err
	}
	if err := resp.ParseJSON(&out); err != nil {
		return nil, err
	}
	return out.Account, nil
}
