package bridge

import "github.com/enzoh7/graphist-analyst/internal/types"

// Request is the decoded generic request. Action selects the operation;
// the remaining fields are action-specific.
type Request struct {
	Action    string  `json:"action"`
	Symbol    string  `json:"symbol,omitempty"`
	Type      string  `json:"type,omitempty"` // buy | sell
	Volume    float64 `json:"volume,omitempty"`
	SL        float64 `json:"sl,omitempty"`
	TP        float64 `json:"tp,omitempty"`
	Timeframe string  `json:"timeframe,omitempty"`
	Limit     int     `json:"limit,omitempty"`
	Login     string  `json:"login,omitempty"`
	Password  string  `json:"password,omitempty"`
	Server    string  `json:"server,omitempty"`
}

// Response statuses.
const (
	StatusSuccess      = "success"
	StatusError        = "error"
	StatusMarketClosed = "market_closed"
	StatusNoData       = "no_data"
)

// Error taxonomy codes carried on failure responses.
const (
	CodeConnectionUnavailable = "ConnectionUnavailable"
	CodeUnknownAction         = "UnknownAction"
	CodeSymbolNotFound        = "SymbolNotFound"
	CodeNoQuote               = "NoQuote"
	CodeMarketClosedNoCache   = "MarketClosedNoCache"
	CodeInvalidRequest        = "InvalidRequest"
	CodeBrokerRejected        = "BrokerRejected"
	CodeMissingCredentials    = "MissingCredentials"
	CodeInternalError         = "InternalError"
)

// Response always carries a status; payload fields depend on the action.
type Response struct {
	ID      string `json:"id,omitempty"`
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`

	Connected *bool              `json:"connected,omitempty"`
	Account   *types.AccountInfo `json:"account,omitempty"`

	Symbol string  `json:"symbol,omitempty"`
	Bid    float64 `json:"bid,omitempty"`
	Ask    float64 `json:"ask,omitempty"`
	Time   int64   `json:"time,omitempty"`

	// Candles is a pointer so a history response can carry an explicit
	// empty series while other actions omit the field entirely.
	Candles   *[]types.Candle `json:"candles,omitempty"`
	FromCache *bool           `json:"from_cache,omitempty"`

	OrderID string `json:"order_id,omitempty"`

	Positions *[]types.Position `json:"positions,omitempty"`
	Symbols   []string          `json:"symbols,omitempty"`
}

func errorResponse(code, message string) Response {
	return Response{Status: StatusError, Code: code, Message: message}
}
