package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenExpired marks a share token past its validity window.
	ErrTokenExpired = errors.New("share token expired")
	// ErrTokenInvalid marks a malformed or tampered share token.
	ErrTokenInvalid = errors.New("share token invalid")
)

// TokenSigner issues and verifies HMAC-signed share tokens that grant
// time-limited access to a single document without authentication.
type TokenSigner struct {
	secret []byte
	now    func() time.Time
}

func NewTokenSigner(secret string) *TokenSigner {
	return &TokenSigner{secret: []byte(secret), now: time.Now}
}

// Sign produces a token of the form base64(documentID|expiry|signature).
func (s *TokenSigner) Sign(documentID string, ttl time.Duration) string {
	expiry := s.now().Add(ttl).Unix()
	payload := fmt.Sprintf("%s|%d", documentID, expiry)
	sig := s.signature(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload + "|" + sig))
}

// Verify checks the signature and expiry, returning the document ID the
// token was issued for.
func (s *TokenSigner) Verify(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", ErrTokenInvalid
	}

	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		return "", ErrTokenInvalid
	}
	documentID, expiryStr, sig := parts[0], parts[1], parts[2]

	payload := documentID + "|" + expiryStr
	if !hmac.Equal([]byte(sig), []byte(s.signature(payload))) {
		return "", ErrTokenInvalid
	}

	expiry, err := strconv.ParseInt(expiryStr, 10, 64)
	if err != nil {
		return "", ErrTokenInvalid
	}
	if s.now().Unix() > expiry {
		return "", ErrTokenExpired
	}

	return documentID, nil
}

func (s *TokenSigner) signature(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
