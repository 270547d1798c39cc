package wallet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

// KeyfileWallet loads its key from a solana-keygen JSON keypair file on connect.
// The file is re-read on every connect, so a replaced file takes effect after reconnecting.
type KeyfileWallet struct {
	keyHolder
	path string
}

// NewKeyfileWallet creates a disconnected wallet backed by the keypair file at path.
func NewKeyfileWallet(path string) *KeyfileWallet {
	return &KeyfileWallet{path: path}
}

func (w *KeyfileWallet) Name() string { return "keyfile" }

func (w *KeyfileWallet) Connect(ctx context.Context) (solana.PublicKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.key != nil {
		return w.key.PublicKey(), nil
	}

	key, err := solana.PrivateKeyFromSolanaKeygenFile(w.path)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to load keypair from %s: %w", w.path, err)
	}
	return w.set(key), nil
}

func (w *KeyfileWallet) Disconnect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clear()
	return nil
}

// WriteKeygenFile stores key at path in the solana-keygen JSON format.
func WriteKeygenFile(path string, key solana.PrivateKey) error {
	// solana-keygen writes the 64 key bytes as a JSON array of numbers
	raw := make([]int, len(key))
	for i, b := range key {
		raw[i] = int(b)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("failed to encode keypair: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write keypair: %w", err)
	}
	return nil
}
