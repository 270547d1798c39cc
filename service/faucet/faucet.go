// Package faucet implements the page flows of the faucet: airdrop, transfer,
// transaction history and message signing.
//
// Each flow keeps the page-local state the views render (the current input, the
// status banner, the last result) and ends every action with a notification.
// Failures are reported to the user with a fixed, generic message; the cause is
// only logged.
package faucet

import (
	"context"
	"errors"
	"log/slog"

	"github.com/brojonat/solsplash/service/notify"
)

// Messages shown to users.
const (
	MsgConnectWallet    = "Please connect your wallet first"
	MsgRequiredFields   = "Please fill in all required fields"
	MsgInvalidRecipient = "Please enter a valid recipient address"
	MsgInvalidAmount    = "Please enter a valid amount"
	MsgAirdropFailed    = "Failed to airdrop"
	MsgTransferSent     = "Transaction sent successfully!"
	MsgTransferFailed   = "Transaction failed. Please try again."
	MsgRefreshCooldown  = "Please wait a moment before refreshing again."
	MsgHistoryFailed    = "Failed to fetch transactions. Please try again later."
	MsgEmptyMessage     = "Please enter a message to sign"
	MsgMessageSigned    = "Message signed successfully!"
	MsgSignFailed       = "Failed to sign message"
	MsgInvalidSignature = "Please enter a valid signature and public key"
)

var (
	// ErrInvalidInput marks a rejected form value.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCooldown marks a history refresh rejected by the cooldown.
	ErrCooldown = errors.New("refresh cooldown")
)

// UserError pairs the message shown to the user with the underlying cause.
type UserError struct {
	Message string
	Err     error
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Err }

// UserMessage returns the user-facing message carried by err, or fallback.
func UserMessage(err error, fallback string) string {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message
	}
	return fallback
}

// Status is the banner a page shows after its last action.
type Status struct {
	Kind    string `json:"kind,omitempty"` // notify.KindSuccess or notify.KindError
	Message string `json:"message,omitempty"`
}

func successStatus(msg string) Status { return Status{Kind: notify.KindSuccess, Message: msg} }

func errorStatus(msg string) Status { return Status{Kind: notify.KindError, Message: msg} }

// publish sends a notification. A failed publish is logged and does not fail the action.
func publish(ctx context.Context, notifier notify.Notifier, logger *slog.Logger, n *notify.Notification) {
	if err := notifier.Publish(ctx, n); err != nil {
		logger.WarnContext(ctx, "failed to publish notification",
			"kind", n.Kind,
			"message", n.Message,
			"error", err,
		)
	}
}
