package faucet

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/brojonat/solsplash/service/metrics"
	"github.com/brojonat/solsplash/service/notify"
	"github.com/brojonat/solsplash/service/session"
	"github.com/brojonat/solsplash/service/wallet"
	solanago "github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
)

// Signature encodings.
const (
	EncodingBase58 = "base58"
	EncodingHex    = "hex"
)

// SampleMessages are offered as one-click message inputs.
var SampleMessages = []string{
	"Hello, Solana!",
	"This is a test message for signing",
}

// SignResult is a signed message.
type SignResult struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
	Encoding  string `json:"encoding"`
	PublicKey string `json:"public_key"`
}

// SignatureView is what the signature page renders.
type SignatureView struct {
	Message        string
	Signature      string
	Encoding       string
	PublicKey      string
	Status         Status
	SampleMessages []string
	Connected      bool
}

// Signer signs arbitrary text messages with the connected wallet.
type Signer struct {
	session  *session.Session
	notifier notify.Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics

	mu        sync.Mutex
	message   string
	signature string
	encoding  string
	publicKey string
	status    Status
}

// NewSigner creates the signature flow.
func NewSigner(sess *session.Session, notifier notify.Notifier, m *metrics.Metrics, logger *slog.Logger) *Signer {
	return &Signer{
		session:  sess,
		notifier: notifier,
		logger:   logger,
		metrics:  m,
		encoding: EncodingBase58,
	}
}

// SetMessage stores the message input.
func (s *Signer) SetMessage(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = message
}

// Sign signs the UTF-8 bytes of message with ed25519 and encodes the 64-byte
// signature. An empty encoding means base58.
func (s *Signer) Sign(ctx context.Context, message, encoding string) (*SignResult, error) {
	s.SetMessage(message)

	pub, err := s.session.PublicKey()
	if err != nil {
		return nil, s.fail(ctx, MsgConnectWallet, "", err)
	}

	encoding, err = normalizeEncoding(encoding)
	if err != nil {
		return nil, s.fail(ctx, MsgSignFailed, pub.String(), err)
	}

	if strings.TrimSpace(message) == "" {
		return nil, s.fail(ctx, MsgEmptyMessage, pub.String(), fmt.Errorf("%w: empty message", ErrInvalidInput))
	}

	sig, err := s.session.SignMessage(ctx, []byte(message))
	if err != nil {
		s.metrics.RecordMessageSigned("error")
		s.logger.ErrorContext(ctx, "failed to sign message",
			"account", pub.String(),
			"error", err,
		)
		return nil, s.fail(ctx, MsgSignFailed, pub.String(), err)
	}
	s.metrics.RecordMessageSigned("success")

	encoded := encodeSignature(sig, encoding)

	s.mu.Lock()
	s.signature = encoded
	s.encoding = encoding
	s.publicKey = pub.String()
	s.status = successStatus(MsgMessageSigned)
	s.mu.Unlock()

	publish(ctx, s.notifier, s.logger, notify.Success(MsgMessageSigned, pub.String()))

	return &SignResult{
		Message:   message,
		Signature: encoded,
		Encoding:  encoding,
		PublicKey: pub.String(),
	}, nil
}

// Verify checks an encoded signature of message. An empty publicKey means the
// connected account.
func (s *Signer) Verify(message, signature, publicKey, encoding string) (bool, error) {
	encoding, err := normalizeEncoding(encoding)
	if err != nil {
		return false, &UserError{Message: MsgInvalidSignature, Err: err}
	}

	var pub solanago.PublicKey
	if strings.TrimSpace(publicKey) == "" {
		pub, err = s.session.PublicKey()
		if err != nil {
			return false, &UserError{Message: MsgConnectWallet, Err: err}
		}
	} else {
		pub, err = solanago.PublicKeyFromBase58(strings.TrimSpace(publicKey))
		if err != nil {
			return false, &UserError{Message: MsgInvalidSignature, Err: fmt.Errorf("%w: %w", ErrInvalidInput, err)}
		}
	}

	sig, err := decodeSignature(strings.TrimSpace(signature), encoding)
	if err != nil {
		return false, &UserError{Message: MsgInvalidSignature, Err: err}
	}

	return wallet.Verify(pub, []byte(message), sig), nil
}

// Clear resets the message, signature and status.
func (s *Signer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = ""
	s.signature = ""
	s.publicKey = ""
	s.status = Status{}
}

// View returns the page state.
func (s *Signer) View() SignatureView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SignatureView{
		Message:        s.message,
		Signature:      s.signature,
		Encoding:       s.encoding,
		PublicKey:      s.publicKey,
		Status:         s.status,
		SampleMessages: SampleMessages,
		Connected:      s.session.State().Connected,
	}
}

func (s *Signer) fail(ctx context.Context, msg, account string, cause error) error {
	s.mu.Lock()
	s.signature = ""
	s.status = errorStatus(msg)
	s.mu.Unlock()

	publish(ctx, s.notifier, s.logger, notify.Error(msg, account))
	return &UserError{Message: msg, Err: cause}
}

func normalizeEncoding(encoding string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", EncodingBase58:
		return EncodingBase58, nil
	case EncodingHex:
		return EncodingHex, nil
	default:
		return "", fmt.Errorf("%w: unknown encoding %q", ErrInvalidInput, encoding)
	}
}

func encodeSignature(sig solanago.Signature, encoding string) string {
	if encoding == EncodingHex {
		return hex.EncodeToString(sig[:])
	}
	return base58.Encode(sig[:])
}

func decodeSignature(s, encoding string) (solanago.Signature, error) {
	var (
		raw []byte
		err error
	)
	if encoding == EncodingHex {
		raw, err = hex.DecodeString(s)
	} else {
		raw, err = base58.Decode(s)
	}
	if err != nil {
		return solanago.Signature{}, fmt.Errorf("%w: malformed signature: %w", ErrInvalidInput, err)
	}

	var sig solanago.Signature
	if len(raw) != len(sig) {
		return solanago.Signature{}, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrInvalidInput, len(sig), len(raw))
	}
	copy(sig[:], raw)
	return sig, nil
}
