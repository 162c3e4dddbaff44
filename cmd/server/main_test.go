package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/notify"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/memory"
)

func testConfig() *config.Config {
	return &config.Config{
		Port:          "0",
		DataBackend:   config.BackendMemory,
		JWTSecret:     "test-secret",
		TokenDuration: time.Hour,
		CurrencyCode:  "USD",
		FanoutLimit:   2,
	}
}

func TestHandler(t *testing.T) {
	cfg := testConfig()
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.CreateUser(ctx, &models.User{ID: "alice", Name: "Alice", Email: "alice@example.com"}))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	notifier := notify.Observed(notify.NewLogNotifier(slog.New(slog.NewTextHandler(io.Discard, nil))), m)

	srv := httptest.NewServer(newHandler(cfg, store, notifier, m, reg))
	t.Cleanup(srv.Close)

	t.Run("healthz", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("rpc requires a token", func(t *testing.T) {
		client := service.NewBalanceServiceClient(srv.Client(), srv.URL)
		_, err := client.GetMyBalances(ctx, connect.NewRequest(&service.GetMyBalancesRequest{}))
		require.Error(t, err)
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("authenticated rpc and metrics", func(t *testing.T) {
		token, err := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenDuration).Generate("alice", "alice@example.com")
		require.NoError(t, err)

		ledger := service.NewLedgerServiceClient(srv.Client(), srv.URL)
		req := connect.NewRequest(&service.CreateGroupRequest{Name: "Flat"})
		req.Header().Set("Authorization", "Bearer "+token)
		_, err = ledger.CreateGroup(ctx, req)
		require.NoError(t, err)

		resp, err := http.Get(srv.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), `splitledger_rpc_requests_total{code="ok",procedure="/splitledger.v1.LedgerService/CreateGroup"} 1`)
	})

	t.Run("cors preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+service.GetMyBalancesProcedure, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	})
}

func TestNewNotifierWithoutAMQP(t *testing.T) {
	n, closeFn, err := newNotifier(testConfig(), nil)
	require.NoError(t, err)
	defer closeFn()
	require.NoError(t, n.NotifyBalanceChanged(context.Background(), "alice", notify.NewEvent(notify.ExpenseCreated, "g1", "bob", "e1")))
}
