package faucet

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brojonat/solsplash/service/notify"
	"github.com/brojonat/solsplash/service/solana"
	"github.com/brojonat/solsplash/service/wallet"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHistory(env *testEnv, cooldown time.Duration) *History {
	return NewHistory(env.session, env.notifier, HistoryOptions{
		Limit:        10,
		FailureDelay: time.Millisecond,
		Cooldown:     cooldown,
	}, nil, env.logger)
}

func testSignature(b byte) solanago.Signature {
	var sig solanago.Signature
	for i := range sig {
		sig[i] = b
	}
	return sig
}

// addTransfer registers an outgoing transfer of the account with the mock RPC.
func addTransfer(t *testing.T, env *testEnv, from solanago.PublicKey, b byte) solanago.Signature {
	t.Helper()
	to, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)

	result, err := solana.NewMockTransferResult(from, to.PublicKey(), solana.LamportsPerSOL, 5000, 1700000000, false)
	require.NoError(t, err)

	sig := testSignature(b)
	bt := solanago.UnixTimeSeconds(1700000000)
	env.rpc.AddTransaction(&rpc.TransactionSignature{Signature: sig, BlockTime: &bt}, result)
	return sig
}

func TestHistory_Refresh(t *testing.T) {
	env := newTestEnv(t, true)
	pub, err := env.session.PublicKey()
	require.NoError(t, err)
	addTransfer(t, env, pub, 1)
	addTransfer(t, env, pub, 2)

	history := newTestHistory(env, 5*time.Second)
	records, err := history.Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 10, env.rpc.GetSignatureLimit())

	view := history.View()
	assert.True(t, view.Loaded)
	assert.False(t, view.Loading)
	assert.Equal(t, "devnet", view.Network)
	assert.Len(t, view.Records, 2)
	assert.Equal(t, pub.String(), view.Records[0].From)
}

func TestHistory_CooldownRejectsWithoutRPC(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	pub, err := env.session.PublicKey()
	require.NoError(t, err)
	addTransfer(t, env, pub, 1)

	history := newTestHistory(env, 5*time.Second)
	_, err = history.Refresh(ctx)
	require.NoError(t, err)
	lookups := len(env.rpc.GetLookups())

	_, err = history.Refresh(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCooldown)
	assert.Equal(t, MsgRefreshCooldown, UserMessage(err, ""))
	assert.Len(t, env.rpc.GetLookups(), lookups, "no lookups while cooling down")

	last := env.notifier.Last()
	require.NotNil(t, last)
	assert.Equal(t, notify.KindError, last.Kind)
	assert.Equal(t, MsgRefreshCooldown, last.Message)
}

func TestHistory_CooldownExpires(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	history := newTestHistory(env, 30*time.Millisecond)

	_, err := history.Refresh(ctx)
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	_, err = history.Refresh(ctx)
	assert.NoError(t, err)
}

func TestHistory_FailedLookupOmitted(t *testing.T) {
	env := newTestEnv(t, true)
	pub, err := env.session.PublicKey()
	require.NoError(t, err)
	addTransfer(t, env, pub, 1)
	failing := addTransfer(t, env, pub, 2)
	addTransfer(t, env, pub, 3)
	env.rpc.SetTransactionError(failing, errors.New("429 Too Many Requests"))

	records, err := newTestHistory(env, 0).Refresh(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, testSignature(1).String(), records[0].Signature)
	assert.Equal(t, testSignature(3).String(), records[1].Signature)
}

func TestHistory_WholeFetchFailure(t *testing.T) {
	env := newTestEnv(t, true)
	env.rpc.SetSignaturesError(errors.New("rpc down"))

	history := newTestHistory(env, 0)
	_, err := history.Refresh(context.Background())
	require.Error(t, err)
	assert.Equal(t, MsgHistoryFailed, UserMessage(err, ""))
	assert.Equal(t, MsgHistoryFailed, env.notifier.Last().Message)
	assert.False(t, history.View().Loaded)
}

func TestHistory_NotConnected(t *testing.T) {
	env := newTestEnv(t, false)
	history := newTestHistory(env, 5*time.Second)

	_, err := history.Refresh(context.Background())
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
	assert.Equal(t, 0, env.rpc.GetSignatureLimit())

	assert.NoError(t, history.EnsureLoaded(context.Background()))
}

func TestHistory_EnsureLoadedOncePerAccount(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	pub, err := env.session.PublicKey()
	require.NoError(t, err)
	addTransfer(t, env, pub, 1)

	history := newTestHistory(env, 0)
	require.NoError(t, history.EnsureLoaded(ctx))
	require.NoError(t, history.EnsureLoaded(ctx))
	assert.Len(t, env.rpc.GetLookups(), 1)

	// A new burner account invalidates the shown records
	require.NoError(t, env.session.Disconnect(ctx))
	_, err = env.session.Connect(ctx)
	require.NoError(t, err)
	assert.False(t, history.View().Loaded)
	assert.Empty(t, history.Records())

	require.NoError(t, history.EnsureLoaded(ctx))
	assert.True(t, history.View().Loaded)
}
