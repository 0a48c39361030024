package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"strings"
	"time"
)

// StateSigner produces and verifies the OAuth state parameter. The state is a
// base64 JSON payload plus an HMAC-SHA256 signature, so the callback can
// verify the flow started here without server-side session storage.
type StateSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

type statePayload struct {
	Callback string `json:"callback,omitempty"`
	Nonce    string `json:"nonce"`
	IssuedAt int64  `json:"ts"`
}

func NewStateSigner(secret string, ttl time.Duration) *StateSigner {
	return &StateSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (s *StateSigner) Sign(callback string) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	payload, err := json.Marshal(statePayload{
		Callback: callback,
		Nonce:    hex.EncodeToString(nonce),
		IssuedAt: s.now().Unix(),
	})
	if err != nil {
		return "", err
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)

	return encoded + "." + s.signature(encoded), nil
}

// Verify checks the signature and expiry and returns the callback URL the
// flow was started with.
func (s *StateSigner) Verify(state string) (string, error) {
	encoded, sig, found := strings.Cut(state, ".")
	if !found {
		return "", ErrOAuthStateInvalid
	}

	expected := s.signature(encoded)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", ErrOAuthStateInvalid
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrOAuthStateInvalid
	}

	var payload statePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return "", ErrOAuthStateInvalid
	}

	if s.now().Sub(time.Unix(payload.IssuedAt, 0)) > s.ttl {
		return "", ErrOAuthStateInvalid
	}

	return payload.Callback, nil
}

func (s *StateSigner) signature(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
