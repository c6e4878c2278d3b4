// Package trade turns a raw trade request into an order the broker will
// accept: the right price side, values rounded to the symbol's precision,
// and a fulfillment mode the broker advertises.
package trade

import (
	"context"
	"errors"
	"math"
	"strings"

	"github.com/enzoh7/graphist-analyst/internal/terminal"
)

var (
	ErrInvalidSymbol = errors.New("symbol metadata unavailable")
	ErrNoQuote       = errors.New("no quote available")
	ErrInvalidVolume = errors.New("volume must be positive")
)

// fillingPreference is the fixed probe order for fulfillment modes. Real
// accounts differ in what they accept; fill-or-kill is tried first, then
// return-on-partial.
var fillingPreference = []string{terminal.FillingFOK, terminal.FillingReturn}

type Normalizer struct {
	conn           terminal.Conn
	defaultFilling string
}

// Prepared is a trade request normalized against current broker metadata.
// A zero stop-loss or take-profit is "not set" and carries HasSL/HasTP
// false so it is omitted from the submitted order rather than sent as zero.
type Prepared struct {
	Price        float64
	SL, TP       float64
	HasSL, HasTP bool
	Filling      string
	Digits       int
}

func New(conn terminal.Conn, defaultFilling string) *Normalizer {
	if defaultFilling == "" {
		defaultFilling = terminal.FillingFOK
	}
	return &Normalizer{conn: conn, defaultFilling: defaultFilling}
}

// Prepare computes the order price and rounds stop-loss and take-profit to
// the symbol's broker-reported precision. The fulfillment mode is re-derived
// on every call; it depends on account and server context and must not be
// cached across trades.
func (n *Normalizer) Prepare(ctx context.Context, symbol, side string, volume, rawSL, rawTP float64) (Prepared, error) {
	if volume <= 0 {
		return Prepared{}, ErrInvalidVolume
	}

	info, err := n.conn.GetSymbolInfo(ctx, symbol)
	if err != nil {
		return Prepared{}, err
	}
	if info == nil {
		return Prepared{}, ErrInvalidSymbol
	}

	tick, err := n.conn.GetTick(ctx, symbol)
	if err != nil {
		return Prepared{}, err
	}
	if tick == nil {
		return Prepared{}, ErrNoQuote
	}

	price := tick.Bid
	if strings.EqualFold(side, "buy") {
		price = tick.Ask
	}

	p := Prepared{
		Price:   roundTo(price, info.Digits),
		Filling: n.selectFilling(info.FillingModes),
		Digits:  info.Digits,
	}
	if rawSL > 0 {
		p.SL = roundTo(rawSL, info.Digits)
		p.HasSL = true
	}
	if rawTP > 0 {
		p.TP = roundTo(rawTP, info.Digits)
		p.HasTP = true
	}
	return p, nil
}

// selectFilling picks the first preferred mode the broker advertises, or
// the configured default when none is.
func (n *Normalizer) selectFilling(advertised []string) string {
	for _, want := range fillingPreference {
		for _, have := range advertised {
			if want == have {
				return want
			}
		}
	}
	return n.defaultFilling
}

func roundTo(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}
