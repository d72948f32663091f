package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crogentx/crogentx/internal/retry"
	"github.com/crogentx/crogentx/pkg/x402"
)

func TestClient_FetchTransactions(t *testing.T) {
	var got TransactionParams
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transactions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"tx-1","txHash":"0xabc","status":"success","instructionType":"payment","value":"1.5"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	txs, err := c.FetchTransactions(context.Background(), TransactionParams{Address: "0x01", Limit: 50})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "tx-1", txs[0].ID)
	assert.Equal(t, x402.InstructionPayment, txs[0].InstructionType)
	assert.Equal(t, TransactionParams{Address: "0x01", Limit: 50}, got)
}

func TestClient_EmptyDataIsEmptySlice(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	txs, err := NewClient(srv.URL, time.Second).FetchTransactions(context.Background(), TransactionParams{})
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Empty(t, txs)
}

func TestClient_FetchAgents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/agents":
			_, _ = w.Write([]byte(`{"data":[{"id":"agent-0","name":"PayFlow Agent","type":"payment_processor"}]}`))
		case "/agents/0xdead":
			_, _ = w.Write([]byte(`{"data":{"id":"agent-7","address":"0xdead"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := NewClient(srv.URL, time.Second)

	agents, err := c.FetchAgents(context.Background())
	require.NoError(t, err)
	require.Len(t, agents, 1)
	assert.Equal(t, x402.AgentPaymentProcessor, agents[0].Type)

	agent, err := c.FetchAgent(context.Background(), "0xdead")
	require.NoError(t, err)
	assert.Equal(t, "agent-7", agent.ID)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchAgents(context.Background())
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Equal(t, EndpointAgents, statusErr.Endpoint)
	assert.Contains(t, statusErr.Error(), "maintenance")
}

func TestClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second).FetchAgents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode agents response")
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := NewClient(srv.URL, 50*time.Millisecond).FetchAgents(context.Background())
	assert.Error(t, err)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "hiccup", http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"data":[{"id":"agent-1"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, WithRetry(retry.Policy{Attempts: 3, BaseDelay: time.Millisecond}))
	agents, err := c.FetchAgents(context.Background())
	require.NoError(t, err)
	assert.Len(t, agents, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such agent", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, WithRetry(retry.Policy{Attempts: 3, BaseDelay: time.Millisecond}))
	_, err := c.FetchAgent(context.Background(), "0xmissing")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryPolicy(t *testing.T) {
	assert.Equal(t, retry.None, RetryPolicy(0))
	assert.Equal(t, retry.None, RetryPolicy(-1))

	p := RetryPolicy(2)
	assert.Equal(t, 3, p.Attempts)
	assert.Equal(t, 200*time.Millisecond, p.BaseDelay)
}
