package types

type Candle struct {
	Ts    int64   `json:"time"`
	Open  float64 `json:"open"`
	High  float64 `json:"high"`
	Low   float64 `json:"low"`
	Close float64 `json:"close"`
	Vol   float64 `json:"volume"`
}

type Tick struct {
	Bid, Ask float64
	Time     int64
	Volume   float64
}

type SymbolInfo struct {
	Name         string
	Digits       int
	FillingModes []string
}

type ListedSymbol struct {
	Name    string
	Visible bool
}

type OrderSpec struct {
	Symbol, Side string
	Volume       float64
	Price        float64
	SL, TP       float64
	HasSL, HasTP bool
	Filling      string
	Magic        int
	Tag          string
}

type OrderResult struct {
	Retcode int
	OrderID string
	Comment string
}

type Position struct {
	Ticket  int64   `json:"ticket"`
	Symbol  string  `json:"symbol"`
	Side    string  `json:"type"`
	Volume  float64 `json:"volume"`
	Open    float64 `json:"price_open"`
	Current float64 `json:"price_current"`
	SL      float64 `json:"sl"`
	TP      float64 `json:"tp"`
	Profit  float64 `json:"profit"`
}

type AccountInfo struct {
	Login    int64  `json:"login"`
	Company  string `json:"company"`
	Currency string `json:"currency"`
}
