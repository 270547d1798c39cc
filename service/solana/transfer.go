package solana

import (
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

// NewTransferInstruction builds a System Program instruction moving lamports from one
// account to another. The sender must sign the enclosing transaction.
func NewTransferInstruction(from, to solana.PublicKey, lamports uint64) (solana.Instruction, error) {
	if lamports == 0 {
		return nil, ErrInvalidAmount
	}
	return system.NewTransferInstruction(lamports, from, to).Build(), nil
}
