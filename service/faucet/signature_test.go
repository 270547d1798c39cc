package faucet

import (
	"context"
	"encoding/hex"
	"testing"

	"github.com/brojonat/solsplash/service/notify"
	"github.com/brojonat/solsplash/service/wallet"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSigner(env *testEnv) *Signer {
	return NewSigner(env.session, env.notifier, nil, env.logger)
}

func TestSigner_SignBase58(t *testing.T) {
	env := newTestEnv(t, true)
	signer := newTestSigner(env)

	result, err := signer.Sign(context.Background(), "Hello, Solana!", "")
	require.NoError(t, err)
	assert.Equal(t, EncodingBase58, result.Encoding)
	assert.Equal(t, env.account(t), result.PublicKey)

	raw, err := base58.Decode(result.Signature)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	ok, err := signer.Verify("Hello, Solana!", result.Signature, result.PublicKey, "")
	require.NoError(t, err)
	assert.True(t, ok)

	view := signer.View()
	assert.Equal(t, "Hello, Solana!", view.Message)
	assert.Equal(t, result.Signature, view.Signature)
	assert.Equal(t, notify.KindSuccess, view.Status.Kind)
	assert.Equal(t, MsgMessageSigned, env.notifier.Last().Message)
}

func TestSigner_SignHex(t *testing.T) {
	env := newTestEnv(t, true)
	signer := newTestSigner(env)

	result, err := signer.Sign(context.Background(), "This is a test message for signing", "HEX")
	require.NoError(t, err)
	assert.Equal(t, EncodingHex, result.Encoding)

	raw, err := hex.DecodeString(result.Signature)
	require.NoError(t, err)
	assert.Len(t, raw, 64)

	// Verifying against the connected account by default
	ok, err := signer.Verify(result.Message, result.Signature, "", EncodingHex)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSigner_VerifyRejectsTampering(t *testing.T) {
	env := newTestEnv(t, true)
	signer := newTestSigner(env)

	result, err := signer.Sign(context.Background(), "Hello, Solana!", EncodingBase58)
	require.NoError(t, err)

	ok, err := signer.Verify("Hello, Solana?", result.Signature, result.PublicKey, EncodingBase58)
	require.NoError(t, err)
	assert.False(t, ok)

	other, err := solanago.NewRandomPrivateKey()
	require.NoError(t, err)
	ok, err = signer.Verify("Hello, Solana!", result.Signature, other.PublicKey().String(), EncodingBase58)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSigner_VerifyMalformedInput(t *testing.T) {
	env := newTestEnv(t, true)
	signer := newTestSigner(env)

	_, err := signer.Verify("msg", "not-base58-0OIl", "", EncodingBase58)
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Equal(t, MsgInvalidSignature, UserMessage(err, ""))

	_, err = signer.Verify("msg", "abcd", "", EncodingHex)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = signer.Verify("msg", "abcd", "nope", EncodingHex)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = signer.Verify("msg", "abcd", "", "base64")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSigner_SignFailures(t *testing.T) {
	t.Run("not connected", func(t *testing.T) {
		env := newTestEnv(t, false)
		_, err := newTestSigner(env).Sign(context.Background(), "Hello, Solana!", "")
		assert.ErrorIs(t, err, wallet.ErrNotConnected)
		assert.Equal(t, MsgConnectWallet, UserMessage(err, ""))
	})

	t.Run("empty message", func(t *testing.T) {
		env := newTestEnv(t, true)
		_, err := newTestSigner(env).Sign(context.Background(), "   ", "")
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, MsgEmptyMessage, UserMessage(err, ""))
	})

	t.Run("unknown encoding", func(t *testing.T) {
		env := newTestEnv(t, true)
		_, err := newTestSigner(env).Sign(context.Background(), "Hello, Solana!", "base64")
		assert.ErrorIs(t, err, ErrInvalidInput)
		assert.Equal(t, MsgSignFailed, UserMessage(err, ""))
	})
}

func TestSigner_Clear(t *testing.T) {
	env := newTestEnv(t, true)
	signer := newTestSigner(env)

	_, err := signer.Sign(context.Background(), "Hello, Solana!", "")
	require.NoError(t, err)

	signer.Clear()
	view := signer.View()
	assert.Empty(t, view.Message)
	assert.Empty(t, view.Signature)
	assert.Empty(t, view.Status.Kind)
	assert.Equal(t, SampleMessages, view.SampleMessages)
}
