package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Session is the wallet session reported by the server.
type Session struct {
	Connected  bool            `json:"connected"`
	PublicKey  string          `json:"public_key,omitempty"`
	Balance    decimal.Decimal `json:"balance"`
	HasBalance bool            `json:"has_balance"`
	Wallet     string          `json:"wallet"`
	Network    string          `json:"network"`
}

// Balance is the SOL balance of the connected account.
type Balance struct {
	PublicKey string          `json:"public_key"`
	Balance   decimal.Decimal `json:"balance"`
	Network   string          `json:"network"`
}

// AirdropResult is the outcome of an airdrop request.
type AirdropResult struct {
	Signature string          `json:"signature"`
	Amount    decimal.Decimal `json:"amount"`
	Lamports  uint64          `json:"lamports"`
	Message   string          `json:"message"`
}

// TransferResult is the outcome of a transfer.
type TransferResult struct {
	Signature   string `json:"signature"`
	ExplorerURL string `json:"explorer_url"`
	Message     string `json:"message"`
}

// Transaction is one row of the transaction history.
type Transaction struct {
	Signature   string          `json:"signature"`
	From        string          `json:"from"`
	To          string          `json:"to"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	Timestamp   int64           `json:"timestamp"`
	ExplorerURL string          `json:"explorer_url"`
}

// Time returns the transaction timestamp.
func (t *Transaction) Time() time.Time {
	return time.Unix(t.Timestamp, 0)
}

// SignedMessage is a message signed by the connected wallet.
type SignedMessage struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Encoding  string `json:"encoding"`
	PublicKey string `json:"public_key"`
}

// Notification is a user notification delivered over the event stream.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Message   string    `json:"message"`
	Account   string    `json:"account,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("request failed (%d): %s", e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

// Client is the HTTP client for the solsplash server.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new solsplash client.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Session returns the current wallet session.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodGet, "/api/v1/session", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Connect connects the server-side wallet.
func (c *Client) Connect(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/session/connect", nil, &s); err != nil {
		return nil, err
	}
	c.logger.Debug("wallet connected", "public_key", s.PublicKey)
	return &s, nil
}

// Disconnect disconnects the server-side wallet.
func (c *Client) Disconnect(ctx context.Context) (*Session, error) {
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/session/disconnect", nil, &s); err != nil {
		return nil, err
	}
	c.logger.Debug("wallet disconnected")
	return &s, nil
}

// Balance fetches the balance of the connected account.
func (c *Client) Balance(ctx context.Context) (*Balance, error) {
	var b Balance
	if err := c.do(ctx, http.MethodGet, "/api/v1/balance", nil, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// Airdrop requests amount SOL for the connected account.
func (c *Client) Airdrop(ctx context.Context, amount string) (*AirdropResult, error) {
	var res AirdropResult
	body := map[string]string{"amount": amount}
	if err := c.do(ctx, http.MethodPost, "/api/v1/airdrop", body, &res); err != nil {
		return nil, err
	}
	c.logger.Debug("airdrop requested", "amount", amount, "signature", res.Signature)
	return &res, nil
}

// Transfer sends amount SOL from the connected account to recipient.
func (c *Client) Transfer(ctx context.Context, recipient, amount string) (*TransferResult, error) {
	var res TransferResult
	body := map[string]string{"recipient": recipient, "amount": amount}
	if err := c.do(ctx, http.MethodPost, "/api/v1/transfer", body, &res); err != nil {
		return nil, err
	}
	c.logger.Debug("transfer sent", "recipient", recipient, "amount", amount, "signature", res.Signature)
	return &res, nil
}

type transactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
	Count        int            `json:"count"`
}

// Transactions returns the history the server last fetched, without a refresh.
func (c *Client) Transactions(ctx context.Context) ([]*Transaction, error) {
	var res transactionsResponse
	if err := c.do(ctx, http.MethodGet, "/api/v1/transactions", nil, &res); err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

// RefreshTransactions asks the server to fetch history from the cluster.
// A refresh inside the cooldown fails with status 429.
func (c *Client) RefreshTransactions(ctx context.Context) ([]*Transaction, error) {
	var res transactionsResponse
	if err := c.do(ctx, http.MethodPost, "/api/v1/transactions/refresh", nil, &res); err != nil {
		return nil, err
	}
	return res.Transactions, nil
}

// Sign signs message with the connected wallet. An empty encoding means base58.
func (c *Client) Sign(ctx context.Context, message, encoding string) (*SignedMessage, error) {
	var res SignedMessage
	body := map[string]string{"message": message, "encoding": encoding}
	if err := c.do(ctx, http.MethodPost, "/api/v1/signature", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Verify checks a message signature. An empty publicKey means the connected account.
func (c *Client) Verify(ctx context.Context, message, signature, publicKey, encoding string) (bool, error) {
	var res struct {
		Valid bool `json:"valid"`
	}
	body := map[string]string{
		"message":    message,
		"signature":  signature,
		"public_key": publicKey,
		"encoding":   encoding,
	}
	if err := c.do(ctx, http.MethodPost, "/api/v1/signature/verify", body, &res); err != nil {
		return false, err
	}
	return res.Valid, nil
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}
	return nil
}

// Version returns the server version.
func (c *Client) Version(ctx context.Context) (string, error) {
	var res struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/version", nil, &res); err != nil {
		return "", err
	}
	return res.Version, nil
}

// StreamNotifications calls fn for each notification until ctx is done, the
// server closes the stream, or fn returns an error. An empty account streams
// notifications for every account.
func (c *Client) StreamNotifications(ctx context.Context, account string, fn func(*Notification) error) error {
	u := c.baseURL + "/api/v1/stream/notifications"
	if account != "" {
		u += "?account=" + url.QueryEscape(account)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	// The stream has no overall deadline; ctx bounds it.
	streamClient := *c.httpClient
	streamClient.Timeout = 0

	resp, err := streamClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	var event string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: ") && event == "notification":
			var n Notification
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &n); err != nil {
				c.logger.Warn("failed to decode notification", "error", err)
				continue
			}
			if err := fn(&n); err != nil {
				return err
			}
		case line == "":
			event = ""
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("stream failed: %w", err)
	}
	return ctx.Err()
}

// do sends a JSON request and decodes a 200 response into out.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.parseErrorResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// parseErrorResponse attempts to parse an error response from the server.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp struct {
		Error string `json:"error"`
	}

	body, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error == "" {
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
}
