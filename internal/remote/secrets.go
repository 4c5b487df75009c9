package remote

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/box"
)

type publicKey struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
}

// SecretScope addresses repository or organization secrets.
type SecretScope struct {
	Repo Repo
	Org  string
}

func (s SecretScope) prefix() string {
	if s.Org != "" {
		return "/orgs/" + s.Org + "/actions/secrets"
	}
	return "/repos/" + s.Repo.String() + "/actions/secrets"
}

// SetSecret encrypts value with the scope's public key and stores it.
func (c *Client) SetSecret(ctx context.Context, scope SecretScope, name, value string) error {
	var key publicKey
	if err := c.do(ctx, "GET", scope.prefix()+"/public-key", nil, &key); err != nil {
		return fmt.Errorf("get secrets public key: %w", err)
	}

	sealed, err := Seal(key.Key, value)
	if err != nil {
		return err
	}

	req := map[string]string{"encrypted_value": sealed, "key_id": key.KeyID}
	if scope.Org != "" {
		req["visibility"] = "all"
	}
	if err := c.do(ctx, "PUT", scope.prefix()+"/"+name, req, nil); err != nil {
		return fmt.Errorf("set secret %s: %w", name, err)
	}
	return nil
}

// Seal encrypts value as an anonymous sealed box for a base64 curve25519
// public key and returns the base64 ciphertext.
func Seal(publicKeyB64, value string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return "", fmt.Errorf("decode public key: %w", err)
	}
	if len(raw) != 32 {
		return "", fmt.Errorf("public key must be 32 bytes, got %d", len(raw))
	}
	var pk [32]byte
	copy(pk[:], raw)

	out, err := box.SealAnonymous(nil, []byte(value), &pk, rand.Reader)
	if err != nil {
		return "", fmt.Errorf("seal secret: %w", err)
	}
	return base64.StdEncoding.EncodeToString(out), nil
}
