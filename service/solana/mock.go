package solana

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrMockNotFound is returned by MockRPCClient for unknown transactions.
var ErrMockNotFound = errors.New("mock: transaction not found")

// MockRPCClient is an in-memory implementation of RPCClient for testing.
// It is behavior-focused: tests set what it should return and inspect what it received.
type MockRPCClient struct {
	mu sync.RWMutex

	balances     map[solana.PublicKey]uint64
	signatures   []*rpc.TransactionSignature
	transactions map[solana.Signature]*rpc.GetTransactionResult
	txErrors     map[solana.Signature]error
	blockhash    solana.Hash
	nextSig      solana.Signature

	balanceErr    error
	airdropErr    error
	signaturesErr error
	blockhashErr  error
	sendErr       error

	airdrops       []uint64
	sent           []*solana.Transaction
	lookups        []solana.Signature
	signatureLimit int
}

// NewMockRPCClient creates a new mock RPC client.
func NewMockRPCClient() *MockRPCClient {
	m := &MockRPCClient{
		balances:     make(map[solana.PublicKey]uint64),
		transactions: make(map[solana.Signature]*rpc.GetTransactionResult),
		txErrors:     make(map[solana.Signature]error),
	}
	for i := range m.nextSig {
		m.nextSig[i] = 7
	}
	for i := range m.blockhash {
		m.blockhash[i] = 9
	}
	return m
}

func (m *MockRPCClient) GetBalance(ctx context.Context, account solana.PublicKey) (uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.balanceErr != nil {
		return 0, m.balanceErr
	}
	return m.balances[account], nil
}

// RequestAirdrop credits the account immediately and returns the configured signature.
func (m *MockRPCClient) RequestAirdrop(ctx context.Context, account solana.PublicKey, lamports uint64) (solana.Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.airdropErr != nil {
		return solana.Signature{}, m.airdropErr
	}
	m.airdrops = append(m.airdrops, lamports)
	m.balances[account] += lamports
	return m.nextSig, nil
}

func (m *MockRPCClient) GetSignaturesForAddress(
	ctx context.Context,
	address solana.PublicKey,
	opts *rpc.GetSignaturesForAddressOpts,
) ([]*rpc.TransactionSignature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if opts != nil && opts.Limit != nil {
		m.signatureLimit = *opts.Limit
	}
	if m.signaturesErr != nil {
		return nil, m.signaturesErr
	}
	return m.signatures, nil
}

func (m *MockRPCClient) GetTransaction(
	ctx context.Context,
	signature solana.Signature,
	opts *rpc.GetTransactionOpts,
) (*rpc.GetTransactionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, signature)
	if err := m.txErrors[signature]; err != nil {
		return nil, err
	}
	result, ok := m.transactions[signature]
	if !ok {
		return nil, ErrMockNotFound
	}
	return result, nil
}

func (m *MockRPCClient) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.blockhashErr != nil {
		return solana.Hash{}, m.blockhashErr
	}
	return m.blockhash, nil
}

// SendTransaction records the transaction and returns its first signature.
func (m *MockRPCClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return solana.Signature{}, m.sendErr
	}
	m.sent = append(m.sent, tx)
	if len(tx.Signatures) > 0 {
		return tx.Signatures[0], nil
	}
	return m.nextSig, nil
}

// SetBalance sets the lamport balance reported for an account.
func (m *MockRPCClient) SetBalance(account solana.PublicKey, lamports uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[account] = lamports
}

// AddTransaction registers a transaction so that it is listed and can be looked up.
// Signatures are listed in the order they are added.
func (m *MockRPCClient) AddTransaction(sig *rpc.TransactionSignature, result *rpc.GetTransactionResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signatures = append(m.signatures, sig)
	if result != nil {
		m.transactions[sig.Signature] = result
	}
}

// SetTransactionError makes the lookup of one transaction fail.
func (m *MockRPCClient) SetTransactionError(sig solana.Signature, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.txErrors[sig] = err
}

// SetAirdropSignature sets the signature returned for airdrops.
func (m *MockRPCClient) SetAirdropSignature(sig solana.Signature) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextSig = sig
}

// SetBalanceError configures the mock to fail GetBalance.
func (m *MockRPCClient) SetBalanceError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balanceErr = err
}

// SetAirdropError configures the mock to fail RequestAirdrop.
func (m *MockRPCClient) SetAirdropError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.airdropErr = err
}

// SetSignaturesError configures the mock to fail GetSignaturesForAddress.
func (m *MockRPCClient) SetSignaturesError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signaturesErr = err
}

// SetBlockhashError configures the mock to fail GetLatestBlockhash.
func (m *MockRPCClient) SetBlockhashError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blockhashErr = err
}

// SetSendError configures the mock to fail SendTransaction.
func (m *MockRPCClient) SetSendError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// GetAirdrops returns the lamport amounts of all airdrops requested.
func (m *MockRPCClient) GetAirdrops() []uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]uint64, len(m.airdrops))
	copy(out, m.airdrops)
	return out
}

// GetSentTransactions returns all broadcast transactions.
func (m *MockRPCClient) GetSentTransactions() []*solana.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*solana.Transaction, len(m.sent))
	copy(out, m.sent)
	return out
}

// GetLookups returns the signatures passed to GetTransaction, in call order.
func (m *MockRPCClient) GetLookups() []solana.Signature {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]solana.Signature, len(m.lookups))
	copy(out, m.lookups)
	return out
}

// GetSignatureLimit returns the limit passed to the last GetSignaturesForAddress call.
func (m *MockRPCClient) GetSignatureLimit() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.signatureLimit
}

// NewMockTransactionResult wraps a transaction and its meta into a lookup result.
// TransactionResultEnvelope has unexported fields, so the envelope goes through JSON.
func NewMockTransactionResult(tx *solana.Transaction, meta *rpc.TransactionMeta, blockTime int64) (*rpc.GetTransactionResult, error) {
	txJSON, err := json.Marshal(tx)
	if err != nil {
		return nil, err
	}

	var temp struct {
		Transaction json.RawMessage `json:"transaction"`
	}
	temp.Transaction = txJSON

	envelopeJSON, err := json.Marshal(temp)
	if err != nil {
		return nil, err
	}

	var result rpc.GetTransactionResult
	if err := json.Unmarshal(envelopeJSON, &result); err != nil {
		return nil, err
	}

	bt := solana.UnixTimeSeconds(blockTime)
	result.BlockTime = &bt
	result.Meta = meta
	return &result, nil
}

// NewMockTransferResult builds the lookup result of a System Program transfer where the
// sender also pays the fee. A failed transfer only charges the fee.
func NewMockTransferResult(from, to solana.PublicKey, lamports, fee uint64, blockTime int64, failed bool) (*rpc.GetTransactionResult, error) {
	instruction := system.NewTransferInstruction(lamports, from, to).Build()
	data, err := instruction.Data()
	if err != nil {
		return nil, err
	}

	tx := &solana.Transaction{
		Message: solana.Message{
			Header: solana.MessageHeader{
				NumRequiredSignatures:       1,
				NumReadonlyUnsignedAccounts: 1,
			},
			AccountKeys: []solana.PublicKey{from, to, solana.SystemProgramID},
			Instructions: []solana.CompiledInstruction{
				{
					ProgramIDIndex: 2,
					Accounts:       []uint16{0, 1},
					Data:           data,
				},
			},
		},
	}

	const startBalance = 10 * LamportsPerSOL
	meta := &rpc.TransactionMeta{
		Fee:          fee,
		PreBalances:  []uint64{startBalance, 0, 1},
		PostBalances: []uint64{startBalance - lamports - fee, lamports, 1},
	}
	if failed {
		meta.Err = map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}}
		meta.PostBalances = []uint64{startBalance - fee, 0, 1}
	}

	return NewMockTransactionResult(tx, meta, blockTime)
}
