package memory

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// memoryCrypto signs with ed25519 keys derived per key id from the master
// key through HKDF-SHA256, so equal master keys yield equal signatures.
type memoryCrypto struct {
	extio.UnimplementedCrypto
	mb *MemoryBackend
}

func (c *memoryCrypto) key(op, keyID string) (ed25519.PrivateKey, error) {
	if keyID == "" {
		return nil, errors.InvalidArgument(op, "key id must not be empty")
	}
	if keys := c.mb.options.SigningKeys; keys != nil && !keys[keyID] {
		return nil, errors.NotFound(op, "signing key '%s' does not exist", keyID)
	}

	seed := make([]byte, ed25519.SeedSize)
	reader := hkdf.New(sha256.New, c.mb.options.MasterKey, nil, []byte("extio/sign/"+keyID))
	if _, err := io.ReadFull(reader, seed); err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, op, "failed to derive signing key")
	}

	return ed25519.NewKeyFromSeed(seed), nil
}

func (c *memoryCrypto) Sign(ctx context.Context, keyID string, payload []byte) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpCryptoSign); err != nil {
		return nil, err
	}

	key, err := c.key(extio.OpCryptoSign, keyID)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(key, payload), nil
}

func (c *memoryCrypto) Verify(ctx context.Context, keyID string, payload, signature []byte) (bool, error) {
	if err := extio.ContextErr(ctx, extio.OpCryptoVerify); err != nil {
		return false, err
	}

	key, err := c.key(extio.OpCryptoVerify, keyID)
	if err != nil {
		return false, err
	}
	if len(signature) != ed25519.SignatureSize {
		return false, nil
	}

	return ed25519.Verify(key.Public().(ed25519.PublicKey), payload, signature), nil
}

func (c *memoryCrypto) GetSecret(ctx context.Context, name string) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpCryptoGetSecret); err != nil {
		return nil, err
	}

	if c.mb.options.Restricted[name] {
		return nil, errors.PermissionDenied(extio.OpCryptoGetSecret, "secret '%s' may not be read", name)
	}
	secret, exists := c.mb.options.Secrets[name]
	if !exists {
		return nil, errors.NotFound(extio.OpCryptoGetSecret, "secret '%s' does not exist", name)
	}

	out := make([]byte, len(secret))
	copy(out, secret)
	return out, nil
}
