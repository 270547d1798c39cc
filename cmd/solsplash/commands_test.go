package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runApp runs the CLI against serverURL and returns what it printed.
func runApp(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	os.Unsetenv("SERVER_URL")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out

	full := append([]string{"solsplash", "--server-url", serverURL}, args...)
	err := app.Run(full)
	return out.String(), err
}

const historyJSON = `{"transactions":[
	{"signature":"s1","from":"a","to":"b","amount":"1.5","status":"Success","timestamp":1700000000,"explorer_url":"u1"},
	{"signature":"s2","from":"a","to":"c","amount":"0.1","status":"Failed","timestamp":1700000100,"explorer_url":"u2"}
],"count":2}`

func TestHealthCommand_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}))
	defer server.Close()

	out, err := runApp(t, server.URL, "server", "health")
	require.NoError(t, err)
	assert.Contains(t, out, "Server is healthy")
}

func TestHealthCommand_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := runApp(t, server.URL, "server", "health")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "health check failed")
}

func TestVersionCommand_ServerUnavailable(t *testing.T) {
	out, err := runApp(t, "http://127.0.0.1:1", "server", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: dev")
	assert.Contains(t, out, "Server:  unavailable")
}

func TestSessionCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"connected":true,"public_key":"Acct111","balance":"2.5","has_balance":true,"wallet":"burner","network":"devnet"}`))
	}))
	defer server.Close()

	out, err := runApp(t, server.URL, "session")
	require.NoError(t, err)
	assert.Contains(t, out, "Account: Acct111")
	assert.Contains(t, out, "Balance: 2.5000 SOL")
}

func TestAirdropCommand_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/airdrop", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "1", body["amount"])

		w.Write([]byte(`{"signature":"sig1","amount":"1","lamports":1000000000,"message":"Successfully airdropped 1 SOL to your wallet!"}`))
	}))
	defer server.Close()

	out, err := runApp(t, server.URL, "--json", "airdrop", "1")
	require.NoError(t, err)

	var res map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "sig1", res["signature"])
}

func TestAirdropCommand_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"Please connect your wallet first"}`))
	}))
	defer server.Close()

	_, err := runApp(t, server.URL, "airdrop", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Please connect your wallet first")
}

func TestTransferCommand_MissingArgs(t *testing.T) {
	_, err := runApp(t, "http://127.0.0.1:1", "transfer", "only-recipient")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient and amount are required")
}

func TestHistoryCommand_JQFilter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/api/v1/transactions", r.URL.Path)
		w.Write([]byte(historyJSON))
	}))
	defer server.Close()

	out, err := runApp(t, server.URL, "--json", "history", "--must-jq", `.status == "Failed"`)
	require.NoError(t, err)

	var txns []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &txns))
	require.Len(t, txns, 1)
	assert.Equal(t, "s2", txns[0]["signature"])
}

func TestHistoryCommand_Refresh(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/v1/transactions/refresh", r.URL.Path)
		w.Write([]byte(historyJSON))
	}))
	defer server.Close()

	out, err := runApp(t, server.URL, "history", "--refresh", "--jq", `.amount | tonumber > 1`)
	require.NoError(t, err)
	assert.Contains(t, out, "Signature: s1")
	assert.NotContains(t, out, "Signature: s2")
}

func TestHistoryCommand_InvalidJQ(t *testing.T) {
	_, err := runApp(t, "http://127.0.0.1:1", "history", "--must-jq", ".status ==")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse jq filter")
}

func TestVerifyCommand_InvalidSignature(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"valid":false}`))
	}))
	defer server.Close()

	_, err := runApp(t, server.URL, "verify", "hello", "sig")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature is not valid")
}

func TestKeygenCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "id.json")

	out, err := runApp(t, "http://127.0.0.1:1", "keygen", "--out", path)
	require.NoError(t, err)

	key, err := solana.PrivateKeyFromSolanaKeygenFile(path)
	require.NoError(t, err)
	assert.Contains(t, out, key.PublicKey().String())

	_, err = runApp(t, "http://127.0.0.1:1", "keygen", "--out", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestJQFilters(t *testing.T) {
	filters, err := compileJQFilters([]string{`.amount == "1.5"`, `.to`})
	require.NoError(t, err)

	ok, err := filters.match(map[string]string{"amount": "1.5", "to": "b"})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = filters.match(map[string]string{"amount": "1.5"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = jqFilters(nil).match("anything")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestIsTruthy(t *testing.T) {
	assert.False(t, isTruthy(nil))
	assert.False(t, isTruthy(false))
	assert.True(t, isTruthy(true))
	assert.True(t, isTruthy(0))
	assert.True(t, isTruthy(""))
	assert.True(t, isTruthy([]interface{}{}))
}
