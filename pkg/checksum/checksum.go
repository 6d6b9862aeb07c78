// Package checksum computes the X-VERIFY token used by the payment gateway:
// sha256 over the canonical string plus the salt key, hex encoded, followed
// by "###" and the salt index.
package checksum

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
)

const (
	Separator  = "###"
	PayPath    = "/pg/v1/pay"
	StatusPath = "/pg/v1/status"
)

type Signer struct {
	saltKey   string
	saltIndex string
}

func New(saltKey, saltIndex string) *Signer {
	return &Signer{saltKey: saltKey, saltIndex: saltIndex}
}

// Sign hashes the concatenation of parts followed by the salt key.
func (s *Signer) Sign(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
	}
	h.Write([]byte(s.saltKey))
	return hex.EncodeToString(h.Sum(nil)) + Separator + s.saltIndex
}

// PayChecksum signs an initiate-payment request body.
func (s *Signer) PayChecksum(base64Payload string) string {
	return s.Sign(base64Payload, PayPath)
}

// StatusChecksum signs a status lookup.
func (s *Signer) StatusChecksum(merchantID, merchantTransactionID string) string {
	return s.Sign(StatusAPIPath(merchantID, merchantTransactionID))
}

// Verify reports whether token is the signature of parts.
func (s *Signer) Verify(token string, parts ...string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	expected := s.Sign(parts...)
	return subtle.ConstantTimeCompare([]byte(expected), []byte(token)) == 1
}

func StatusAPIPath(merchantID, merchantTransactionID string) string {
	return fmt.Sprintf("%s/%s/%s", StatusPath, merchantID, merchantTransactionID)
}
