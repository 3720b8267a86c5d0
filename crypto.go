package extio

import (
	"context"

	"github.com/mwantia/extio/errors"
)

// CryptoCapability exposes signing, verification and secret retrieval.
type CryptoCapability interface {
	// Sign signs payload with the key identified by keyID.
	Sign(ctx context.Context, keyID string, payload []byte) ([]byte, error)
	// Verify reports whether signature is valid for payload under keyID.
	// An invalid signature is a false result, not a failure.
	Verify(ctx context.Context, keyID string, payload, signature []byte) (bool, error)
	// GetSecret returns the named secret, or PermissionDenied when the
	// caller may not read it.
	GetSecret(ctx context.Context, name string) ([]byte, error)

	mustEmbedUnimplementedCrypto()
}

// UnimplementedCrypto must be embedded by every CryptoCapability implementation.
type UnimplementedCrypto struct{}

func (UnimplementedCrypto) Sign(context.Context, string, []byte) ([]byte, error) {
	return nil, errors.Unsupported(OpCryptoSign)
}

func (UnimplementedCrypto) Verify(context.Context, string, []byte, []byte) (bool, error) {
	return false, errors.Unsupported(OpCryptoVerify)
}

func (UnimplementedCrypto) GetSecret(context.Context, string) ([]byte, error) {
	return nil, errors.Unsupported(OpCryptoGetSecret)
}

func (UnimplementedCrypto) mustEmbedUnimplementedCrypto() {}
