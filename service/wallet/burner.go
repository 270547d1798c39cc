package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// BurnerWallet generates a throwaway key on every connect and keeps it in memory only.
// It is meant for test clusters; funds held by a burner key are lost on disconnect.
type BurnerWallet struct {
	keyHolder
}

// NewBurnerWallet creates a disconnected burner wallet.
func NewBurnerWallet() *BurnerWallet {
	return &BurnerWallet{}
}

func (w *BurnerWallet) Name() string { return "burner" }

func (w *BurnerWallet) Connect(ctx context.Context) (solana.PublicKey, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.key != nil {
		return w.key.PublicKey(), nil
	}

	key, err := solana.NewRandomPrivateKey()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to generate burner key: %w", err)
	}
	return w.set(key), nil
}

func (w *BurnerWallet) Disconnect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clear()
	return nil
}
