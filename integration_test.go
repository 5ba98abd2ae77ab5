package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"

	"github.com/office/restobook/config"
	"github.com/office/restobook/live"
	"github.com/office/restobook/models"
	"github.com/office/restobook/repository"
	"github.com/office/restobook/router"
	"github.com/office/restobook/services"
	"github.com/office/restobook/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func TestOpenStoreBackends(t *testing.T) {
	ctx := context.Background()

	s, err := openStore(ctx, config.Config{
		StoreBackend: config.BackendLocal,
		LocalDriver:  "sqlite",
		LocalDSN:     "file:open_store?mode=memory&cache=shared",
	})
	assert.NoError(t, err)
	assert.NoError(t, s.Close(ctx))

	_, err = openStore(ctx, config.Config{StoreBackend: config.BackendLocal, LocalDriver: "postgres"})
	assert.Error(t, err)

	_, err = openStore(ctx, config.Config{StoreBackend: "memcached"})
	assert.Error(t, err)
}

func TestEndToEndOrderLifecycle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStore(ctx, config.Config{
		StoreBackend: config.BackendLocal,
		LocalDriver:  "sqlite",
		LocalDSN:     "file:integration?mode=memory&cache=shared",
	})
	assert.NoError(t, err)
	defer st.Close(context.Background())

	repo := repository.New(st)
	hub := live.NewHub()
	pump := live.NewPump(hub, repo, services.NewAggregator(repo))
	assert.NoError(t, pump.Start(ctx))

	srv := httptest.NewServer(router.SetupRouter(repo, hub))
	defer srv.Close()

	// Listen on the live socket before touching any data.
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	assert.NoError(t, err)
	defer conn.Close()
	time.Sleep(100 * time.Millisecond)

	// Seed the menu, open an order, add items, settle.
	menuItem := postJSON[models.MenuItem](t, srv, "/menu", map[string]interface{}{
		"name":     "Pav Bhaji",
		"category": "Main",
		"price":    100.0,
	})
	order := postJSON[models.Order](t, srv, "/orders", map[string]interface{}{
		"customer_name": "Raj",
		"order_type":    "Dine-in",
	})
	postJSON[repository.OrderWithItems](t, srv, fmt.Sprintf("/orders/%d/items", order.ID), map[string]interface{}{
		"menu_item_id": menuItem.ID,
		"quantity":     2,
	})
	postJSON[map[string]interface{}](t, srv, fmt.Sprintf("/orders/%d/payment", order.ID), map[string]interface{}{
		"payment_mode": "Cash",
	})

	// The socket saw the order run and then complete.
	sawRunning := false
	sawCompleted := false
	deadline := time.Now().Add(3 * time.Second)
	for (!sawRunning || !sawCompleted) && time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		var msg struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		var views []services.OrderView
		switch msg.Event {
		case live.EventRunningOrders:
			if json.Unmarshal(msg.Data, &views) == nil && len(views) > 0 && views[0].Order.ID == order.ID {
				sawRunning = true
			}
		case live.EventCompletedOrders:
			if json.Unmarshal(msg.Data, &views) == nil && len(views) > 0 && views[0].Order.ID == order.ID {
				sawCompleted = true
				assert.Equal(t, "Cash", views[0].PaymentMode)
			}
		}
	}
	assert.True(t, sawRunning, "running_orders event with the new order")
	assert.True(t, sawCompleted, "completed_orders event after payment")

	// The daily report reflects the settled bill.
	resp, err := http.Get(srv.URL + "/reports/daily")
	assert.NoError(t, err)
	defer resp.Body.Close()
	var env struct {
		Data services.DailyReport `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	assert.Equal(t, 1, env.Data.CompletedOrders)
	assert.Equal(t, 200.0, env.Data.SalesTotal)
}

func postJSON[T any](t *testing.T, srv *httptest.Server, path string, payload interface{}) T {
	t.Helper()
	raw, err := json.Marshal(payload)
	assert.NoError(t, err)

	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(raw))
	assert.NoError(t, err)
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		t.Fatalf("POST %s returned %d", path, resp.StatusCode)
	}

	var env struct {
		Data T `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env.Data
}
