// Package server is the thin HTTP front for the dispatcher: decode the
// request, dispatch, encode the response. All routes funnel into the single
// request handler; no logic lives here.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/enzoh7/graphist-analyst/internal/bridge"
	"github.com/enzoh7/graphist-analyst/internal/logger"
)

type Server struct {
	dispatcher *bridge.Dispatcher
	httpServer *http.Server
}

func New(addr string, d *bridge.Dispatcher) *Server {
	s := &Server{dispatcher: d}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /rpc", s.handleRPC)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /price/{symbol}", s.handlePrice)
	mux.HandleFunc("GET /history/{symbol}", s.handleHistory)
	mux.HandleFunc("POST /trade", s.handleTrade)
	mux.HandleFunc("GET /positions", s.handlePositions)
	mux.HandleFunc("GET /symbols", s.handleSymbols)
	mux.HandleFunc("POST /switch_account", s.handleSwitchAccount)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, req bridge.Request) {
	resp := s.dispatcher.Handle(r.Context(), req)
	writeJSON(w, statusCodeFor(resp), resp)
}

// statusCodeFor maps response statuses to HTTP codes the charting caller
// expects from the original gateway routes.
func statusCodeFor(resp bridge.Response) int {
	switch resp.Status {
	case bridge.StatusError:
		switch resp.Code {
		case bridge.CodeConnectionUnavailable:
			return http.StatusServiceUnavailable
		case bridge.CodeSymbolNotFound:
			return http.StatusNotFound
		case bridge.CodeInternalError:
			return http.StatusInternalServerError
		default:
			return http.StatusBadRequest
		}
	default:
		return http.StatusOK
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error(context.Background(), "Failed to encode response", "error", err)
	}
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req bridge.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, bridge.Response{
			Status:  bridge.StatusError,
			Code:    bridge.CodeInvalidRequest,
			Message: "malformed request body",
		})
		return
	}
	s.dispatch(w, r, req)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, bridge.Request{Action: "health"})
}

func (s *Server) handlePrice(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, bridge.Request{Action: "price", Symbol: r.PathValue("symbol")})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	s.dispatch(w, r, bridge.Request{
		Action:    "history",
		Symbol:    r.PathValue("symbol"),
		Timeframe: r.URL.Query().Get("timeframe"),
		Limit:     limit,
	})
}

func (s *Server) handleTrade(w http.ResponseWriter, r *http.Request) {
	var req bridge.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, bridge.Response{
			Status:  bridge.StatusError,
			Code:    bridge.CodeInvalidRequest,
			Message: "malformed request body",
		})
		return
	}
	req.Action = "trade"
	s.dispatch(w, r, req)
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, bridge.Request{Action: "positions"})
}

func (s *Server) handleSymbols(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, r, bridge.Request{Action: "symbols"})
}

func (s *Server) handleSwitchAccount(w http.ResponseWriter, r *http.Request) {
	var req bridge.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, bridge.Response{
			Status:  bridge.StatusError,
			Code:    bridge.CodeInvalidRequest,
			Message: "malformed request body",
		})
		return
	}
	req.Action = "switch_account"
	s.dispatch(w, r, req)
}
