// Package wallet provides the signing identity behind a session.
//
// A Wallet holds at most one key at a time. It can be connected and disconnected
// repeatedly; signing while disconnected fails with ErrNotConnected.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
)

// ErrNotConnected is returned when an operation needs a connected wallet.
var ErrNotConnected = errors.New("wallet not connected")

// Wallet is a source of an account identity and its signatures.
type Wallet interface {
	// Name identifies the wallet kind (e.g. "burner").
	Name() string

	// Connect makes an account available. Connecting an already connected
	// wallet returns the current account.
	Connect(ctx context.Context) (solana.PublicKey, error)

	// Disconnect forgets the account. It is a no-op when not connected.
	Disconnect(ctx context.Context) error

	// PublicKey returns the connected account, or false when disconnected.
	PublicKey() (solana.PublicKey, bool)

	// SignMessage signs arbitrary bytes with the account key.
	SignMessage(ctx context.Context, message []byte) (solana.Signature, error)

	// SignTransaction adds the account's signature to tx.
	SignTransaction(ctx context.Context, tx *solana.Transaction) error
}

// keyHolder implements the signing half of Wallet around an optional private key.
type keyHolder struct {
	mu  sync.RWMutex
	key *solana.PrivateKey
}

func (h *keyHolder) PublicKey() (solana.PublicKey, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.key == nil {
		return solana.PublicKey{}, false
	}
	return h.key.PublicKey(), true
}

func (h *keyHolder) SignMessage(ctx context.Context, message []byte) (solana.Signature, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.key == nil {
		return solana.Signature{}, ErrNotConnected
	}
	sig, err := h.key.Sign(message)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign message: %w", err)
	}
	return sig, nil
}

func (h *keyHolder) SignTransaction(ctx context.Context, tx *solana.Transaction) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.key == nil {
		return ErrNotConnected
	}

	key := *h.key
	_, err := tx.Sign(func(pub solana.PublicKey) *solana.PrivateKey {
		if pub.Equals(key.PublicKey()) {
			return &key
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}

func (h *keyHolder) set(key solana.PrivateKey) solana.PublicKey {
	h.key = &key
	return key.PublicKey()
}

func (h *keyHolder) clear() {
	h.key = nil
}

// Verify reports whether sig is a valid signature of message by account.
func Verify(account solana.PublicKey, message []byte, sig solana.Signature) bool {
	return sig.Verify(account, message)
}
