package local

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwantia/extio"
	"github.com/mwantia/extio/errors"
)

// KeySuffix is appended to a key id to find its seed file in the secrets
// directory. Seed files hold 32 raw bytes or 64 hex characters.
const KeySuffix = ".ed25519"

type localCrypto struct {
	extio.UnimplementedCrypto
	lb *LocalBackend
}

func (c *localCrypto) secretPath(op, name string) (string, error) {
	if name == "" {
		return "", errors.InvalidArgument(op, "name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.InvalidArgument(op, "invalid name '%s'", name)
	}
	if c.lb.options.SecretsDir == "" {
		return "", errors.NotFound(op, "no secrets directory is configured")
	}
	return filepath.Join(c.lb.options.SecretsDir, name), nil
}

func (c *localCrypto) key(op, keyID string) (ed25519.PrivateKey, error) {
	path, err := c.secretPath(op, keyID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path + KeySuffix)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(op, "signing key '%s' does not exist", keyID)
		}
		return nil, errors.From(op, err)
	}

	seed := data
	if text := strings.TrimSpace(string(data)); len(text) == hex.EncodedLen(ed25519.SeedSize) {
		if seed, err = hex.DecodeString(text); err != nil {
			return nil, errors.Wrap(err, errors.KindInternal, op, "signing key '"+keyID+"' is malformed")
		}
	}
	if len(seed) != ed25519.SeedSize {
		return nil, errors.Internal(op, "signing key '%s' has %d bytes, expected %d", keyID, len(seed), ed25519.SeedSize)
	}

	return ed25519.NewKeyFromSeed(seed), nil
}

func (c *localCrypto) Sign(ctx context.Context, keyID string, payload []byte) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpCryptoSign); err != nil {
		return nil, err
	}

	key, err := c.key(extio.OpCryptoSign, keyID)
	if err != nil {
		return nil, err
	}
	return ed25519.Sign(key, payload), nil
}

func (c *localCrypto) Verify(ctx context.Context, keyID string, payload, signature []byte) (bool, error) {
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

// GetSecret returns the contents of the file named after the secret.
func (c *localCrypto) GetSecret(ctx context.Context, name string) ([]byte, error) {
	if err := extio.ContextErr(ctx, extio.OpCryptoGetSecret); err != nil {
		return nil, err
	}
	if c.lb.options.RestrictedSecrets[name] || strings.HasSuffix(name, KeySuffix) {
		return nil, errors.PermissionDenied(extio.OpCryptoGetSecret, "secret '%s' may not be read", name)
	}

	path, err := c.secretPath(extio.OpCryptoGetSecret, name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound(extio.OpCryptoGetSecret, "secret '%s' does not exist", name)
		}
		return nil, errors.From(extio.OpCryptoGetSecret, err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}
