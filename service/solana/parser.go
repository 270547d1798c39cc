package solana

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// explorerBaseURL is the public block explorer used for transaction links.
const explorerBaseURL = "https://explorer.solana.com/tx/"

// DecodeBalanceDeltas turns a fetched transaction into a TransactionRecord by comparing
// pre- and post-balances of every account the transaction touched.
//
// The first account whose balance dropped is treated as the sender and the size of that
// drop is the amount (so it includes the fee when the sender paid it). The first account
// whose balance rose is the recipient. This is a heuristic: multi-party transactions are
// reduced to a single sender and recipient.
//
// Returns (nil, nil) when the result has no meta, no transaction or no instructions;
// callers leave those out of the history.
func DecodeBalanceDeltas(sig *rpc.TransactionSignature, result *rpc.GetTransactionResult, account solana.PublicKey) (*TransactionRecord, error) {
	if result == nil || result.Meta == nil || result.Transaction == nil {
		return nil, nil
	}

	tx, err := result.Transaction.GetTransaction()
	if err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	if tx == nil || len(tx.Message.Instructions) == 0 {
		return nil, nil
	}

	record := &TransactionRecord{
		Signature: signatureString(sig, tx),
		From:      account.String(),
		To:        UnknownAddress,
		Status:    StatusSuccess,
		Timestamp: blockTime(sig, result),
	}

	if result.Meta.Err != nil || (sig != nil && sig.Err != nil) {
		record.Status = StatusFailed
	}

	keys := accountKeys(tx, result.Meta)
	pre, post := result.Meta.PreBalances, result.Meta.PostBalances

	n := min(len(pre), len(post), len(keys))
	foundSender, foundRecipient := false, false
	for i := 0; i < n && !(foundSender && foundRecipient); i++ {
		delta := int64(post[i]) - int64(pre[i])
		switch {
		case delta < 0 && !foundSender:
			record.From = keys[i].String()
			record.Amount = lamportDeltaToSOL(-delta)
			foundSender = true
		case delta > 0 && !foundRecipient:
			record.To = keys[i].String()
			foundRecipient = true
		}
	}

	return record, nil
}

// accountKeys lists the accounts in balance order: static keys first, then any
// addresses loaded from lookup tables (writable before read-only).
func accountKeys(tx *solana.Transaction, meta *rpc.TransactionMeta) []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, len(tx.Message.AccountKeys)+
		len(meta.LoadedAddresses.Writable)+len(meta.LoadedAddresses.ReadOnly))
	keys = append(keys, tx.Message.AccountKeys...)
	keys = append(keys, meta.LoadedAddresses.Writable...)
	keys = append(keys, meta.LoadedAddresses.ReadOnly...)
	return keys
}

func signatureString(sig *rpc.TransactionSignature, tx *solana.Transaction) string {
	if sig != nil && !sig.Signature.IsZero() {
		return sig.Signature.String()
	}
	if len(tx.Signatures) > 0 {
		return tx.Signatures[0].String()
	}
	return ""
}

// blockTime prefers the block time reported with the signature, then the one on the
// transaction, then the current time.
func blockTime(sig *rpc.TransactionSignature, result *rpc.GetTransactionResult) int64 {
	if sig != nil && sig.BlockTime != nil {
		return int64(*sig.BlockTime)
	}
	if result.BlockTime != nil {
		return int64(*result.BlockTime)
	}
	return time.Now().Unix()
}

// ExplorerURL returns the block explorer link for a transaction on the given cluster.
func ExplorerURL(signature, network string) string {
	return explorerBaseURL + signature + "?cluster=" + network
}

// ShortAddress abbreviates an address as the first and last four characters.
// Short strings such as "Unknown" are returned unchanged.
func ShortAddress(addr string) string {
	r := []rune(addr)
	if len(r) <= 8 {
		return addr
	}
	return string(r[:4]) + "..." + string(r[len(r)-4:])
}
