package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/brojonat/solsplash/service/faucet"
	"github.com/brojonat/solsplash/service/session"
	"github.com/brojonat/solsplash/service/solana"
	"github.com/brojonat/solsplash/service/wallet"
)

const (
	maxRequestBodySize = 1 << 20 // 1MB - plenty for any faucet form
)

// transactionResponse is a history record with its explorer link.
type transactionResponse struct {
	*solana.TransactionRecord
	ExplorerURL string `json:"explorer_url"`
}

func toTransactionResponses(records []*solana.TransactionRecord, network string) []transactionResponse {
	resp := make([]transactionResponse, len(records))
	for i, record := range records {
		resp[i] = transactionResponse{
			TransactionRecord: record,
			ExplorerURL:       solana.ExplorerURL(record.Signature, network),
		}
	}
	return resp
}

// handleGetSession returns the current wallet session.
// GET /api/v1/session
func handleGetSession(sess *session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, sess.State(), http.StatusOK)
	})
}

// handleConnect connects the wallet and fetches its balance.
// POST /api/v1/session/connect
func handleConnect(sess *session.Session, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := sess.Connect(r.Context()); err != nil {
			logger.ErrorContext(r.Context(), "failed to connect wallet", "error", err)
			writeError(w, "failed to connect wallet", http.StatusBadGateway)
			return
		}

		st, err := sess.RefreshBalance(r.Context())
		if err != nil {
			logger.WarnContext(r.Context(), "failed to fetch balance after connect", "error", err)
		}
		writeJSON(w, st, http.StatusOK)
	})
}

// handleDisconnect disconnects the wallet.
// POST /api/v1/session/disconnect
func handleDisconnect(sess *session.Session, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := sess.Disconnect(r.Context()); err != nil {
			logger.ErrorContext(r.Context(), "failed to disconnect wallet", "error", err)
			writeError(w, "failed to disconnect wallet", http.StatusBadGateway)
			return
		}
		writeJSON(w, sess.State(), http.StatusOK)
	})
}

// handleGetBalance refreshes and returns the balance of the connected account.
// GET /api/v1/balance
func handleGetBalance(sess *session.Session, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st, err := sess.RefreshBalance(r.Context())
		if err != nil {
			writeActionError(w, err, "failed to fetch balance")
			return
		}
		writeJSON(w, map[string]interface{}{
			"public_key": st.PublicKey,
			"balance":    st.Balance,
			"network":    st.Network,
		}, http.StatusOK)
	})
}

// handleAirdrop requests an airdrop for the connected account.
// POST /api/v1/airdrop
func handleAirdrop(airdrop *faucet.Airdrop, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Amount json.Number `json:"amount"`
		}
		if !decodeJSON(w, r, &req, logger) {
			return
		}

		result, err := airdrop.Request(r.Context(), req.Amount.String())
		if err != nil {
			writeActionError(w, err, faucet.MsgAirdropFailed)
			return
		}
		writeJSON(w, result, http.StatusOK)
	})
}

// handleTransfer sends SOL from the connected account.
// POST /api/v1/transfer
func handleTransfer(transfer *faucet.Transfer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Recipient string      `json:"recipient"`
			Amount    json.Number `json:"amount"`
		}
		if !decodeJSON(w, r, &req, logger) {
			return
		}

		result, err := transfer.Submit(r.Context(), faucet.TransferDraft{
			Recipient: req.Recipient,
			Amount:    req.Amount.String(),
		})
		if err != nil {
			writeActionError(w, err, faucet.MsgTransferFailed)
			return
		}
		writeJSON(w, result, http.StatusOK)
	})
}

// handleListTransactions returns the last fetched history without contacting the cluster.
// GET /api/v1/transactions
func handleListTransactions(history *faucet.History) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		view := history.View()
		writeJSON(w, map[string]interface{}{
			"transactions": toTransactionResponses(view.Records, view.Network),
			"loaded":       view.Loaded,
			"loading":      view.Loading,
			"count":        len(view.Records),
		}, http.StatusOK)
	})
}

// handleRefreshTransactions fetches history from the cluster.
// POST /api/v1/transactions/refresh
func handleRefreshTransactions(history *faucet.History, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		records, err := history.Refresh(r.Context())
		if err != nil {
			writeActionError(w, err, faucet.MsgHistoryFailed)
			return
		}

		view := history.View()
		writeJSON(w, map[string]interface{}{
			"transactions": toTransactionResponses(records, view.Network),
			"loaded":       true,
			"count":        len(records),
		}, http.StatusOK)
	})
}

// handleSignMessage signs a message with the connected wallet.
// POST /api/v1/signature
func handleSignMessage(signer *faucet.Signer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message  string `json:"message"`
			Encoding string `json:"encoding"`
		}
		if !decodeJSON(w, r, &req, logger) {
			return
		}

		result, err := signer.Sign(r.Context(), req.Message, req.Encoding)
		if err != nil {
			writeActionError(w, err, faucet.MsgSignFailed)
			return
		}
		writeJSON(w, result, http.StatusOK)
	})
}

// handleVerifySignature checks a message signature.
// POST /api/v1/signature/verify
func handleVerifySignature(signer *faucet.Signer, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Message   string `json:"message"`
			Signature string `json:"signature"`
			PublicKey string `json:"public_key"`
			Encoding  string `json:"encoding"`
		}
		if !decodeJSON(w, r, &req, logger) {
			return
		}

		valid, err := signer.Verify(req.Message, req.Signature, req.PublicKey, req.Encoding)
		if err != nil {
			writeActionError(w, err, faucet.MsgInvalidSignature)
			return
		}
		writeJSON(w, map[string]bool{"valid": valid}, http.StatusOK)
	})
}

// decodeJSON reads a size-limited JSON body into v. On failure it writes a 400 and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, logger *slog.Logger) bool {
	// Limit request body size to prevent memory exhaustion
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		logger.Debug("failed to decode request", "path", r.URL.Path, "error", err)
		// Check if error is due to body size limit
		if strings.Contains(err.Error(), "http: request body too large") {
			writeError(w, "request body too large: maximum size is 1MB", http.StatusBadRequest)
			return false
		}
		writeError(w, "invalid request body: must be valid JSON", http.StatusBadRequest)
		return false
	}
	return true
}

// statusForError maps a faucet action error to an HTTP status.
func statusForError(err error) int {
	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		return http.StatusConflict
	case errors.Is(err, faucet.ErrCooldown):
		return http.StatusTooManyRequests
	case errors.Is(err, faucet.ErrInvalidInput):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// writeActionError writes the user-facing message of err with a matching status.
func writeActionError(w http.ResponseWriter, err error, fallback string) {
	msg := faucet.UserMessage(err, fallback)
	if errors.Is(err, wallet.ErrNotConnected) {
		msg = faucet.MsgConnectWallet
	}
	writeError(w, msg, statusForError(err))
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
