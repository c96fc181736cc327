package httputil

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// NoncePlaceholder marks where the index page wants the request's CSP nonce.
const NoncePlaceholder = "{{CSP_NONCE}}"

type nonceKey struct{}

// NewNonce returns 16 random bytes encoded as unpadded base64url.
func NewNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func WithNonce(ctx context.Context, nonce string) context.Context {
	return context.WithValue(ctx, nonceKey{}, nonce)
}

func Nonce(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(nonceKey{}).(string)
	return v, ok && v != ""
}

// StampNonce fills every placeholder in page with the nonce carried by ctx.
// Without one the placeholders are blanked, which leaves inline scripts
// blocked by the policy.
func StampNonce(ctx context.Context, page []byte) []byte {
	nonce, _ := Nonce(ctx)
	return bytes.ReplaceAll(page, []byte(NoncePlaceholder), []byte(nonce))
}
