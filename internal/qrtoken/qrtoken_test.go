package qrtoken

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestNewCodecRequiresSecret(t *testing.T) {
	if _, err := NewCodec(""); err == nil {
		t.Fatal("expected error for empty secret")
	}
	if _, err := NewCodec("s3cret"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c, _ := NewCodec("s3cret")
	payloads := []Payload{
		{InvitationID: 1, EventID: 1, Ts: 0},
		{InvitationID: 42, EventID: 7, Ts: 1700000000},
		{InvitationID: 18446744073709551615, EventID: 999, Ts: -1},
	}
	for _, p := range payloads {
		tok, err := c.Encode(p)
		if err != nil {
			t.Fatalf("encode %+v: %v", p, err)
		}
		got, err := c.Decode(tok)
		if err != nil {
			t.Fatalf("decode %+v: %v", p, err)
		}
		if got != p {
			t.Errorf("round trip mismatch: got %+v want %+v", got, p)
		}
	}
}

func TestDecodeRejectsMalformedTokens(t *testing.T) {
	c, _ := NewCodec("s3cret")
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"no delimiter", "abcdef"},
		{"missing signature", "abcdef."},
		{"missing payload", ".abcdef"},
		{"extra segment", "a.b.c"},
		{"payload not base64", "***.YWJj"},
		{"signature not base64", "YWJj.***"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := c.Decode(tt.token); !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Decode(%q) error = %v, want ErrInvalidFormat", tt.token, err)
			}
		})
	}
}

func TestDecodeNotJSONPayload(t *testing.T) {
	// A correctly signed token whose payload bytes are not JSON still
	// fails, but as a format error rather than a signature one.
	c, _ := NewCodec("s3cret")
	body := []byte("not-json")
	enc := base64.RawURLEncoding
	tok := enc.EncodeToString(body) + "." + enc.EncodeToString(c.sign(body))
	if _, err := c.Decode(tok); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Decode error = %v, want ErrInvalidFormat", err)
	}
}

// flipBit decodes a base64url segment, flips one bit of byte i and
// re-encodes it, so the result stays valid base64 and the failure can
// only come from signature verification.
func flipBit(t *testing.T, segment string, i int) string {
	t.Helper()
	raw, err := base64.RawURLEncoding.DecodeString(segment)
	if err != nil {
		t.Fatalf("segment not base64: %v", err)
	}
	raw[i%len(raw)] ^= 1 << (i % 8)
	return base64.RawURLEncoding.EncodeToString(raw)
}

func TestDecodeDetectsTampering(t *testing.T) {
	c, _ := NewCodec("s3cret")
	tok, err := c.Encode(Payload{InvitationID: 42, EventID: 7, Ts: 1700000000})
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(tok, ".")

	for i := 0; i < 16; i++ {
		tampered := flipBit(t, parts[0], i) + "." + parts[1]
		if _, err := c.Decode(tampered); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("payload bit %d: error = %v, want ErrInvalidSignature", i, err)
		}
	}
	for i := 0; i < 16; i++ {
		tampered := parts[0] + "." + flipBit(t, parts[1], i)
		if _, err := c.Decode(tampered); !errors.Is(err, ErrInvalidSignature) {
			t.Errorf("signature bit %d: error = %v, want ErrInvalidSignature", i, err)
		}
	}
}

func TestDecodeRejectsResignedPayloadField(t *testing.T) {
	// Swapping event_id inside the payload without re-signing must fail
	// signature verification.
	c, _ := NewCodec("s3cret")
	tok, err := c.Encode(Payload{InvitationID: 42, EventID: 7, Ts: 1700000000})
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(tok, ".")
	raw, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		t.Fatal(err)
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatal(err)
	}
	p.EventID = 8
	swapped, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	tampered := base64.RawURLEncoding.EncodeToString(swapped) + "." + parts[1]
	if _, err := c.Decode(tampered); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Decode error = %v, want ErrInvalidSignature", err)
	}
}

func TestDecodeRejectsForeignSecret(t *testing.T) {
	a, _ := NewCodec("secret-a")
	b, _ := NewCodec("secret-b")
	tok, err := a.Encode(Payload{InvitationID: 1, EventID: 2, Ts: 3})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Decode(tok); !errors.Is(err, ErrInvalidSignature) {
		t.Errorf("Decode error = %v, want ErrInvalidSignature", err)
	}
}
