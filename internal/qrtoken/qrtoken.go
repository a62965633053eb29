// Package qrtoken produces and verifies the compact signed tokens
// embedded in invitation QR codes. A token is
//
//	base64url(payload JSON) + "." + base64url(HMAC-SHA256(payload, secret))
//
// The payload is not encrypted; anyone holding a token can read it. The
// signature only guarantees integrity and origin, so a terminal can
// trust that a token it scans was issued by this server and has not
// been altered.
package qrtoken

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidFormat is returned when a token is structurally malformed:
// missing delimiter, extra segments, or segments that are not valid
// base64url / JSON. Handlers should treat this as a bad request rather
// than tampering.
var ErrInvalidFormat = errors.New("qrtoken: invalid token format")

// ErrInvalidSignature is returned when a token parses but its signature
// does not match the payload. This indicates an altered or forged
// token, distinct from the stale-token case where a valid token
// references an invitation that no longer exists.
var ErrInvalidSignature = errors.New("qrtoken: invalid signature")

// Payload is the data carried inside a QR token. Ts records when the
// token was generated; it is carried for traceability but not validated
// on decode, so tokens do not expire.
type Payload struct {
	InvitationID uint64 `json:"invitation_id"`
	EventID      uint64 `json:"event_id"`
	Ts           int64  `json:"ts"`
}

// Codec signs and verifies QR token payloads with a process-wide
// secret. The secret comes from configuration and its absence is a
// fatal startup error, never a per-request one.
type Codec struct {
	secret []byte
}

// NewCodec returns a Codec using the given signing secret.
func NewCodec(secret string) (*Codec, error) {
	if secret == "" {
		return nil, errors.New("qrtoken: empty signing secret")
	}
	return &Codec{secret: []byte(secret)}, nil
}

// Encode serializes the payload and returns the signed token string.
func (c *Codec) Encode(p Payload) (string, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	sig := c.sign(body)
	enc := base64.RawURLEncoding
	return enc.EncodeToString(body) + "." + enc.EncodeToString(sig), nil
}

// Decode verifies the token signature and returns the payload. It fails
// closed: any structural problem yields ErrInvalidFormat and any
// signature mismatch yields ErrInvalidSignature.
func (c *Codec) Decode(token string) (Payload, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Payload{}, ErrInvalidFormat
	}
	enc := base64.RawURLEncoding
	body, err := enc.DecodeString(parts[0])
	if err != nil {
		return Payload{}, ErrInvalidFormat
	}
	sig, err := enc.DecodeString(parts[1])
	if err != nil {
		return Payload{}, ErrInvalidFormat
	}
	if !hmac.Equal(sig, c.sign(body)) {
		return Payload{}, ErrInvalidSignature
	}
	var p Payload
	if err := json.Unmarshal(body, &p); err != nil {
		return Payload{}, ErrInvalidFormat
	}
	return p, nil
}

func (c *Codec) sign(body []byte) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write(body)
	return mac.Sum(nil)
}
