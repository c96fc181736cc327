package httputil

import (
	"context"
	"encoding/base64"
	"testing"
)

func TestNewNonce(t *testing.T) {
	a, err := NewNonce()
	if err != nil {
		t.Fatalf("new nonce: %v", err)
	}
	b, err := NewNonce()
	if err != nil {
		t.Fatalf("new nonce: %v", err)
	}
	if a == b {
		t.Errorf("expected distinct nonces, got %q twice", a)
	}
	raw, err := base64.RawURLEncoding.DecodeString(a)
	if err != nil || len(raw) != 16 {
		t.Errorf("expected 16 base64url bytes, got %q (%v)", a, err)
	}
}

func TestStampNonce(t *testing.T) {
	page := []byte(`<script nonce="{{CSP_NONCE}}"></script><style nonce="{{CSP_NONCE}}"></style>`)

	t.Run("with nonce", func(t *testing.T) {
		got := string(StampNonce(WithNonce(context.Background(), "abc"), page))
		want := `<script nonce="abc"></script><style nonce="abc"></style>`
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})

	t.Run("without nonce", func(t *testing.T) {
		got := string(StampNonce(context.Background(), page))
		want := `<script nonce=""></script><style nonce=""></style>`
		if got != want {
			t.Errorf("expected %q, got %q", want, got)
		}
	})
}

func TestNonceMissing(t *testing.T) {
	if _, ok := Nonce(context.Background()); ok {
		t.Error("expected no nonce in a bare context")
	}
	if _, ok := Nonce(WithNonce(context.Background(), "")); ok {
		t.Error("expected an empty nonce to count as missing")
	}
}
