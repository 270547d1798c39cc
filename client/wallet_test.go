package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSession_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/session", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"connected":true,"public_key":"Abc123","balance":"1.5","has_balance":true,"wallet":"burner","network":"devnet"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	s, err := client.Session(context.Background())
	require.NoError(t, err)

	assert.True(t, s.Connected)
	assert.Equal(t, "Abc123", s.PublicKey)
	assert.Equal(t, "1.5", s.Balance.String())
	assert.Equal(t, "burner", s.Wallet)
	assert.Equal(t, "devnet", s.Network)
}

func TestConnectDisconnect(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		paths = append(paths, r.URL.Path)
		connected := r.URL.Path == "/api/v1/session/connect"
		json.NewEncoder(w).Encode(map[string]interface{}{"connected": connected})
	}))
	defer server.Close()

	client := NewClient(server.URL+"/", nil, nil)

	s, err := client.Connect(context.Background())
	require.NoError(t, err)
	assert.True(t, s.Connected)

	s, err = client.Disconnect(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Connected)

	assert.Equal(t, []string{"/api/v1/session/connect", "/api/v1/session/disconnect"}, paths)
}

func TestAirdrop_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/airdrop", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "2", body["amount"])

		json.NewEncoder(w).Encode(map[string]interface{}{
			"signature": "sig123",
			"amount":    "2",
			"lamports":  2000000000,
			"message":   "Successfully airdropped 2 SOL to your wallet!",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	res, err := client.Airdrop(context.Background(), "2")
	require.NoError(t, err)

	assert.Equal(t, "sig123", res.Signature)
	assert.Equal(t, uint64(2000000000), res.Lamports)
	assert.Contains(t, res.Message, "Successfully airdropped")
}

func TestAirdrop_NotConnected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Please connect your wallet first",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	_, err := client.Airdrop(context.Background(), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please connect your wallet first")
	assert.True(t, IsStatus(err, http.StatusConflict))
}

func TestTransfer_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/transfer", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Recipient111", body["recipient"])
		assert.Equal(t, "0.5", body["amount"])

		json.NewEncoder(w).Encode(map[string]string{
			"signature":    "sig456",
			"explorer_url": "https://explorer.solana.com/tx/sig456?cluster=devnet",
			"message":      "Transaction sent successfully!",
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	res, err := client.Transfer(context.Background(), "Recipient111", "0.5")
	require.NoError(t, err)
	assert.Equal(t, "sig456", res.Signature)
	assert.Contains(t, res.ExplorerURL, "cluster=devnet")
}

func TestRefreshTransactions_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/transactions/refresh", r.URL.Path)

		w.Write([]byte(`{"transactions":[{"signature":"s1","from":"a","to":"b","amount":"1","status":"Success","timestamp":1700000000,"explorer_url":"u"}],"count":1}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	txns, err := client.RefreshTransactions(context.Background())
	require.NoError(t, err)
	require.Len(t, txns, 1)

	assert.Equal(t, "s1", txns[0].Signature)
	assert.Equal(t, "Success", txns[0].Status)
	assert.Equal(t, "1", txns[0].Amount.String())
	assert.Equal(t, int64(1700000000), txns[0].Time().Unix())
}

func TestRefreshTransactions_Cooldown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]string{"error": "Please wait a few seconds before refreshing again"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	_, err := client.RefreshTransactions(context.Background())
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusTooManyRequests))
	assert.False(t, IsStatus(err, http.StatusConflict))
}

func TestTransactions_Empty(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		w.Write([]byte(`{"transactions":[],"loaded":false,"count":0}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	txns, err := client.Transactions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestSignAndVerify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case "/api/v1/signature":
			assert.Equal(t, "hello", body["message"])
			assert.Equal(t, "hex", body["encoding"])
			json.NewEncoder(w).Encode(map[string]string{
				"message":    "hello",
				"signature":  "abcd",
				"encoding":   "hex",
				"public_key": "Pub111",
			})
		case "/api/v1/signature/verify":
			assert.Equal(t, "abcd", body["signature"])
			assert.Equal(t, "Pub111", body["public_key"])
			json.NewEncoder(w).Encode(map[string]bool{"valid": true})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	signed, err := client.Sign(context.Background(), "hello", "hex")
	require.NoError(t, err)
	assert.Equal(t, "abcd", signed.Signature)

	valid, err := client.Verify(context.Background(), "hello", signed.Signature, signed.PublicKey, "hex")
	require.NoError(t, err)
	assert.True(t, valid)
}

func TestHealthAndVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.Write([]byte("OK"))
		case "/version":
			json.NewEncoder(w).Encode(map[string]string{"version": "v1.2.3"})
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	require.NoError(t, client.Health(context.Background()))

	version, err := client.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v1.2.3", version)
}

func TestParseErrorResponse_PlainText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil, nil)
	err := client.Health(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "bad gateway", apiErr.Message)
}

func TestStreamNotifications(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stream/notifications", r.URL.Path)
		assert.Equal(t, "Acct111", r.URL.Query().Get("account"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: connected\ndata: {\"account\":\"Acct111\"}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "event: notification\ndata: {\"id\":\"1\",\"kind\":\"success\",\"message\":\"first\"}\n\n")
		fmt.Fprint(w, "event: notification\ndata: not-json\n\n")
		fmt.Fprint(w, "event: notification\ndata: {\"id\":\"2\",\"kind\":\"error\",\"message\":\"second\"}\n\n")
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := NewClient(server.URL, nil, nil)
	var got []*Notification
	err := client.StreamNotifications(ctx, "Acct111", func(n *Notification) error {
		got = append(got, n)
		return nil
	})
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "first", got[0].Message)
	assert.Equal(t, "error", got[1].Kind)
}

func TestStreamNotifications_CallbackStops(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "event: notification\ndata: {\"message\":\"one\"}\n\n")
		fmt.Fprint(w, "event: notification\ndata: {\"message\":\"two\"}\n\n")
	}))
	defer server.Close()

	stop := errors.New("stop")
	client := NewClient(server.URL, nil, nil)
	calls := 0
	err := client.StreamNotifications(context.Background(), "", func(n *Notification) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}
