package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"forex-trading-agent/internal/store"
	"forex-trading-agent/internal/types"
)

func bridgeConfig(mode, url string) *store.Config {
	cfg := &store.Config{Mode: mode, CallTimeoutSeconds: 5}
	cfg.Executor.URL = url
	return cfg
}

func testOrder() types.OrderRequest {
	return types.OrderRequest{Instrument: "EUR_USD", Direction: types.Buy, Lots: 0.1}
}

func TestExecuteDryRun(t *testing.T) {
	b := NewBridge(bridgeConfig("DRY_RUN", "http://localhost:1"))

	res, err := b.Execute(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if !res.Success {
		t.Error("Expected simulated success")
	}
	if !strings.HasPrefix(res.OrderID, "DRY-") {
		t.Errorf("Expected DRY- order id, got %s", res.OrderID)
	}
}

func TestDryRunSettlement(t *testing.T) {
	b := NewBridge(bridgeConfig("DRY_RUN", "http://localhost:1"))
	ctx := context.Background()

	order := testOrder()
	order.Price = 1.0800
	res, err := b.Execute(ctx, order)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.FillPrice != 1.0800 {
		t.Errorf("Expected simulated fill at the reference price, got %f", res.FillPrice)
	}

	// No observed price yet: the position stays open.
	closed, err := b.ClosedPositions(ctx, 0)
	if err != nil {
		t.Fatalf("ClosedPositions failed: %v", err)
	}
	if len(closed) != 0 {
		t.Fatalf("Expected no settlement without a price, got %d", len(closed))
	}

	// 50 pips in favor on 0.1 lots.
	closed, err = b.ClosedPositions(ctx, 1.0850)
	if err != nil {
		t.Fatalf("ClosedPositions failed: %v", err)
	}
	if len(closed) != 1 {
		t.Fatalf("Expected 1 settled position, got %d", len(closed))
	}
	if closed[0].OrderID != res.OrderID {
		t.Errorf("Expected settlement for %s, got %s", res.OrderID, closed[0].OrderID)
	}
	if pl := closed[0].ProfitLoss; pl < 49.99 || pl > 50.01 {
		t.Errorf("Expected profit near 50, got %f", pl)
	}

	// Settled positions do not report twice.
	closed, _ = b.ClosedPositions(ctx, 1.0900)
	if len(closed) != 0 {
		t.Errorf("Expected no repeat settlement, got %d", len(closed))
	}
}

func TestDryRunSettlementSellDirection(t *testing.T) {
	b := NewBridge(bridgeConfig("DRY_RUN", "http://localhost:1"))
	ctx := context.Background()

	order := testOrder()
	order.Direction = types.Sell
	order.Price = 1.0800
	if _, err := b.Execute(ctx, order); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	closed, err := b.ClosedPositions(ctx, 1.0850)
	if err != nil {
		t.Fatalf("ClosedPositions failed: %v", err)
	}
	if pl := closed[0].ProfitLoss; pl > -49.99 || pl < -50.01 {
		t.Errorf("Expected loss near -50 for a sell into a rising price, got %f", pl)
	}
}

func TestClosedPositionsLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/positions/closed" {
			t.Errorf("Expected /positions/closed path, got %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"positions": [{"order_id": "ORD-7", "profit_loss": -8.25}]}`))
	}))
	defer srv.Close()

	b := NewBridge(bridgeConfig("LIVE", srv.URL))
	closed, err := b.ClosedPositions(context.Background(), 1.0845)
	if err != nil {
		t.Fatalf("ClosedPositions failed: %v", err)
	}
	if len(closed) != 1 || closed[0].OrderID != "ORD-7" || closed[0].ProfitLoss != -8.25 {
		t.Errorf("Unexpected settlements: %+v", closed)
	}
}

func TestExecuteLive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orders" {
			t.Errorf("Expected /orders path, got %s", r.URL.Path)
		}
		var order types.OrderRequest
		if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
			t.Fatalf("Failed to decode order: %v", err)
		}
		if order.Instrument != "EUR_USD" || order.Lots != 0.1 {
			t.Errorf("Unexpected order: %+v", order)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true, "order_id": "ORD-7", "fill_price": 1.0845}`))
	}))
	defer srv.Close()

	b := NewBridge(bridgeConfig("LIVE", srv.URL))
	res, err := b.Execute(context.Background(), testOrder())
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if res.OrderID != "ORD-7" || res.FillPrice != 1.0845 {
		t.Errorf("Unexpected result: %+v", res)
	}
}

func TestExecuteRejectedOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": false, "message": "market closed"}`))
	}))
	defer srv.Close()

	b := NewBridge(bridgeConfig("LIVE", srv.URL))
	_, err := b.Execute(context.Background(), testOrder())
	if err == nil {
		t.Fatal("Expected error on rejected order")
	}
	if types.IsFatal(err) {
		t.Errorf("Expected plain rejection to be non-fatal, got %v", err)
	}
}

func TestExecuteFatalErrorCodes(t *testing.T) {
	cases := []struct {
		code string
		want error
	}{
		{"INVALID_CREDENTIALS", types.ErrCredentialsInvalid},
		{"INSUFFICIENT_BALANCE", types.ErrInsufficientBalance},
		{"CONNECTION_LOST", types.ErrConnectivityLost},
	}
	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"success": false, "error_code": tc.code, "message": "rejected",
			})
		}))

		b := NewBridge(bridgeConfig("LIVE", srv.URL))
		_, err := b.Execute(context.Background(), testOrder())
		srv.Close()

		if !errors.Is(err, tc.want) {
			t.Errorf("Code %s: expected %v, got %v", tc.code, tc.want, err)
		}
		if !types.IsFatal(err) {
			t.Errorf("Code %s: expected fatal classification", tc.code)
		}
	}
}
