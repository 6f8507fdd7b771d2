// Package token mints and verifies signed bearer tokens for gateway sessions.
//
// Tokens are deliberately not JWTs. The format is
// base64(subject:issuedAtMillis:signature) where signature is the hex-encoded
// HMAC-SHA256 of "subject:issuedAtMillis" under a single static secret.
// There is no rotation and no revocation; a token is valid until its TTL
// elapses.
package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Verification failure kinds. Handlers must collapse all of these to one
// generic client-facing message; they stay distinct for logs and metrics.
var (
	ErrMalformedEncoding  = errors.New("token: malformed encoding")
	ErrMalformedStructure = errors.New("token: malformed structure")
	ErrBadTimestamp       = errors.New("token: bad timestamp")
	ErrBadSignature       = errors.New("token: bad signature")
	ErrExpired            = errors.New("token: expired")
)

// FailureKind returns the metrics label for a verification error, or ""
// if err is not one of the package's sentinel errors.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedEncoding):
		return "malformed_encoding"
	case errors.Is(err, ErrMalformedStructure):
		return "malformed_structure"
	case errors.Is(err, ErrBadTimestamp):
		return "bad_timestamp"
	case errors.Is(err, ErrBadSignature):
		return "bad_signature"
	case errors.Is(err, ErrExpired):
		return "expired"
	default:
		return ""
	}
}

// Claims holds the verified content of a token.
type Claims struct {
	Subject  string
	IssuedAt time.Time
}

// Service mints and verifies tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a token service. The secret must not be empty.
func NewService(secret string, ttl time.Duration, opts ...Option) (*Service, error) {
	if secret == "" {
		return nil, errors.New("token: secret must not be empty")
	}
	if ttl <= 0 {
		return nil, errors.New("token: ttl must be positive")
	}

	s := &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Mint creates a signed token for the given subject.
func (s *Service) Mint(subject string) (string, error) {
	if subject == "" {
		return "", errors.New("token: subject must not be empty")
	}

	payload := subject + ":" + strconv.FormatInt(s.now().UnixMilli(), 10)
	encoded := payload + ":" + s.sign(payload)
	return base64.StdEncoding.EncodeToString([]byte(encoded)), nil
}

// Verify checks a token's structure, signature and age, returning its claims.
// On failure it returns one of the package's sentinel errors.
func (s *Service) Verify(tok string) (Claims, error) {
	raw, err := base64.StdEncoding.DecodeString(tok)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return Claims{}, fmt.Errorf("%w: got %d segments", ErrMalformedStructure, len(parts))
	}
	subject, issuedAtStr, signature := parts[0], parts[1], parts[2]

	issuedAtMillis, err := strconv.ParseInt(issuedAtStr, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrBadTimestamp, err)
	}

	// Constant-time comparison. The signature is attacker-controlled input,
	// so naive string equality would leak a timing side-channel.
	expected := s.sign(subject + ":" + issuedAtStr)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return Claims{}, ErrBadSignature
	}

	issuedAt := time.UnixMilli(issuedAtMillis)
	age := s.now().Sub(issuedAt)
	if age < 0 || age > s.ttl {
		return Claims{}, ErrExpired
	}

	return Claims{Subject: subject, IssuedAt: issuedAt}, nil
}

func (s *Service) sign(payload string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}
