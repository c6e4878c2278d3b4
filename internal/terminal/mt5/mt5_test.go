package mt5

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/enzoh7/graphist-analyst/internal/types"
)

func newTestConn(t *testing.T, handler http.Handler) *Conn {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Params{GatewayURL: srv.URL})
}

func TestConnectProbesGateway(t *testing.T) {
	conn := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ping" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"connected": true}`))
	}))

	if err := conn.Connect(context.Background()); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if !conn.Connected() {
		t.Error("Expected connected=true after probe")
	}
}

func TestConnectGatewayWithoutSession(t *testing.T) {
	conn := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"connected": false}`))
	}))

	if err := conn.Connect(context.Background()); err == nil {
		t.Error("Expected error when the gateway reports no terminal session")
	}
	if conn.Connected() {
		t.Error("Expected connected=false")
	}
}

func TestGetTickAbsent(t *testing.T) {
	conn := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"tick": null}`))
	}))

	tick, err := conn.GetTick(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("GetTick failed: %v", err)
	}
	if tick != nil {
		t.Errorf("Expected nil tick for a closed market, got %+v", tick)
	}
}

func TestSubmitOrderPayload(t *testing.T) {
	var body map[string]interface{}
	conn := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/order_send" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("Order body is not valid JSON: %v", err)
		}
		w.Write([]byte(`{"result": {"retcode": 10009, "order": 555, "comment": "done"}}`))
	}))

	result, err := conn.SubmitOrder(context.Background(), types.OrderSpec{
		Symbol:  "EURUSD",
		Side:    "buy",
		Volume:  0.1,
		Price:   1.23456,
		Filling: "FOK",
		Magic:   2026,
		Tag:     "Pro Analyst Trade",
	})
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}
	if result == nil || result.OrderID != "555" {
		t.Fatalf("Unexpected order result: %+v", result)
	}

	if body["magic"] != float64(2026) {
		t.Errorf("Expected magic 2026 in the order body, got %v", body["magic"])
	}
	if body["type_time"] != "GTC" {
		t.Errorf("Expected type_time GTC, got %v", body["type_time"])
	}
	if body["comment"] != "Pro Analyst Trade" {
		t.Errorf("Expected order comment, got %v", body["comment"])
	}
	if _, present := body["sl"]; present {
		t.Error("Unset stop-loss must not appear in the order body")
	}
	if _, present := body["tp"]; present {
		t.Error("Unset take-profit must not appear in the order body")
	}
}

func TestSubmitOrderIncludesStops(t *testing.T) {
	var body map[string]interface{}
	conn := newTestConn(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&body)
		w.Write([]byte(`{"result": {"retcode": 10009, "order": 556, "comment": "done"}}`))
	}))

	_, err := conn.SubmitOrder(context.Background(), types.OrderSpec{
		Symbol: "EURUSD", Side: "sell", Volume: 0.1, Price: 1.2345,
		SL: 1.25, HasSL: true, TP: 1.2, HasTP: true,
		Filling: "FOK", Magic: 2026,
	})
	if err != nil {
		t.Fatalf("SubmitOrder failed: %v", err)
	}
	if body["sl"] != 1.25 || body["tp"] != 1.2 {
		t.Errorf("Expected sl/tp in the order body, got sl=%v tp=%v", body["sl"], body["tp"])
	}
}
