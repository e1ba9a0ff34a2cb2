package signature

import (
	"io"
	"log/slog"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestVerify(t *testing.T) {
	secret := "test-secret-key"
	body := []byte(`{"object":"instagram","entry":[]}`)
	validSig := Format(Compute(body, secret))

	tests := []struct {
		name      string
		body      []byte
		signature string
		secret    string
		want      bool
	}{
		{
			name:      "valid signature",
			body:      body,
			signature: validSig,
			secret:    secret,
			want:      true,
		},
		{
			name:      "tampered body",
			body:      []byte(`{"object":"instagram","entry":[{}]}`),
			signature: validSig,
			secret:    secret,
			want:      false,
		},
		{
			name:      "wrong secret",
			body:      body,
			signature: validSig,
			secret:    "wrong-secret",
			want:      false,
		},
		{
			name:      "missing sha256 prefix",
			body:      body,
			signature: Compute(body, secret),
			secret:    secret,
			want:      false,
		},
		{
			name:      "empty signature",
			body:      body,
			signature: "",
			secret:    secret,
			want:      false,
		},
		{
			name:      "malformed hex",
			body:      body,
			signature: "sha256=not-valid-hex",
			secret:    secret,
			want:      false,
		},
		{
			name:      "no secret configured accepts anything",
			body:      []byte("garbage"),
			signature: "nonsense",
			secret:    "",
			want:      true,
		},
		{
			name:      "no secret configured accepts empty body",
			body:      nil,
			signature: "",
			secret:    "",
			want:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier(tt.secret, discardLogger())
			if got := v.Verify(tt.body, tt.signature); got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestVerify_SingleByteFlips(t *testing.T) {
	secret := "test-secret-key"
	body := []byte(`{"object":"instagram","entry":[{"id":"123"}]}`)
	sig := Format(Compute(body, secret))
	v := NewVerifier(secret, discardLogger())

	if !v.Verify(body, sig) {
		t.Fatal("Verify() = false for untouched body")
	}

	for i := range body {
		altered := append([]byte(nil), body...)
		altered[i] ^= 0x01
		if v.Verify(altered, sig) {
			t.Errorf("Verify() = true with byte %d altered", i)
		}
	}
}

func TestCompute(t *testing.T) {
	body := []byte("test payload")
	secret := "test-secret"

	sig := Compute(body, secret)
	if len(sig) != 64 { // SHA256 = 32 bytes = 64 hex chars
		t.Errorf("signature length = %d, want 64", len(sig))
	}

	if sig != Compute(body, secret) {
		t.Error("signature should be deterministic")
	}
	if sig == Compute([]byte("different"), secret) {
		t.Error("different body should produce different signature")
	}
}
