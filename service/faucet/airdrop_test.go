package faucet

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/brojonat/solsplash/service/notify"
	"github.com/brojonat/solsplash/service/solana"
	"github.com/brojonat/solsplash/service/wallet"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAirdrop(env *testEnv) *Airdrop {
	return NewAirdrop(env.session, env.notifier, decimal.NewFromInt(5), nil, env.logger)
}

func TestAirdrop_CanSubmit(t *testing.T) {
	connected := newTestAirdrop(newTestEnv(t, true))
	disconnected := newTestAirdrop(newTestEnv(t, false))

	assert.True(t, connected.CanSubmit("1"))
	assert.True(t, connected.CanSubmit("0.5"))
	// The max is only a hint
	assert.True(t, connected.CanSubmit("10"))

	for _, bad := range []string{"", "abc", "0", "-1", "0.0000000001"} {
		assert.False(t, connected.CanSubmit(bad), bad)
	}
	assert.False(t, disconnected.CanSubmit("1"))
}

func TestAirdrop_RequestSuccess(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t, true)
	airdrop := newTestAirdrop(env)

	airdrop.SetAmount("2")
	result, err := airdrop.Request(ctx, "2")
	require.NoError(t, err)

	assert.Equal(t, uint64(2*solana.LamportsPerSOL), result.Lamports)
	assert.Equal(t, "Successfully airdropped 2 SOL to your wallet!", result.Message)
	assert.Equal(t, []uint64{2 * solana.LamportsPerSOL}, env.rpc.GetAirdrops())

	view := airdrop.View()
	assert.Empty(t, view.Amount, "amount is cleared on success")
	assert.Equal(t, notify.KindSuccess, view.Status.Kind)
	assert.Equal(t, result.Message, view.Status.Message)

	last := env.notifier.Last()
	require.NotNil(t, last)
	assert.Equal(t, notify.KindSuccess, last.Kind)
	assert.Equal(t, "Successfully airdropped 2 SOL to your wallet!", last.Message)
	assert.Equal(t, env.account(t), last.Account)

	// The mock credits the account, so the navbar balance follows
	st := env.session.State()
	assert.True(t, st.HasBalance)
	assert.True(t, decimal.NewFromInt(2).Equal(st.Balance))
}

func TestAirdrop_RequestMessageUsesParsedAmount(t *testing.T) {
	env := newTestEnv(t, true)

	result, err := newTestAirdrop(env).Request(context.Background(), " 1e0 ")
	require.NoError(t, err)
	assert.Equal(t, "Successfully airdropped 1 SOL to your wallet!", result.Message)
	assert.Equal(t, []uint64{solana.LamportsPerSOL}, env.rpc.GetAirdrops())
}

func TestAirdrop_RequestFailureKeepsAmount(t *testing.T) {
	env := newTestEnv(t, true)
	env.rpc.SetAirdropError(errors.New("429 Too Many Requests"))
	airdrop := newTestAirdrop(env)

	_, err := airdrop.Request(context.Background(), "1")
	require.Error(t, err)
	assert.Equal(t, MsgAirdropFailed, UserMessage(err, ""))

	view := airdrop.View()
	assert.Equal(t, "1", view.Amount)
	assert.Equal(t, notify.KindError, view.Status.Kind)
	assert.Equal(t, MsgAirdropFailed, env.notifier.Last().Message)
}

func TestAirdrop_RequestValidation(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		env := newTestEnv(t, false)
		_, err := newTestAirdrop(env).Request(context.Background(), "1")
		assert.ErrorIs(t, err, wallet.ErrNotConnected)
		assert.Equal(t, MsgConnectWallet, UserMessage(err, ""))
		assert.Empty(t, env.rpc.GetAirdrops())
	})

	for _, bad := range []string{"", "abc", "0", "-2", "1e20000000", "1e-20000000"} {
		t.Run(fmt.Sprintf("amount %q", bad), func(t *testing.T) {
			env := newTestEnv(t, true)
			_, err := newTestAirdrop(env).Request(context.Background(), bad)
			assert.ErrorIs(t, err, ErrInvalidInput)
			assert.Equal(t, MsgInvalidAmount, UserMessage(err, ""))
			assert.Empty(t, env.rpc.GetAirdrops())
		})
	}
}

func TestAirdrop_View(t *testing.T) {
	env := newTestEnv(t, true)
	airdrop := newTestAirdrop(env)
	airdrop.SetAmount("0.5")

	view := airdrop.View()
	assert.Equal(t, []string{"0.5", "1", "2", "5"}, view.QuickAmounts)
	assert.True(t, decimal.NewFromInt(5).Equal(view.MaxHint))
	assert.True(t, view.Connected)
	assert.True(t, view.CanSubmit)
}
