package auth

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// TokenClaims represents the claims carried by a session token
type TokenClaims struct {
	Subject   string    `json:"sub"`
	IssuedAt  time.Time `json:"iat"`
	ExpiresAt time.Time `json:"exp"`
}

// PasetoService issues and verifies PASETO v4.local session tokens
// (symmetric encryption with XChaCha20-Poly1305). The key is loaded once at
// startup and read-only afterwards, so the service is safe for concurrent use.
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
}

// NewPasetoService builds a token service from the raw symmetric key and the
// validity window applied to every issued token. A key of the wrong length is
// a startup-time failure; no tokens can be issued without a valid key.
func NewPasetoService(symmetricKey []byte, duration time.Duration) (*PasetoService, error) {
	if len(symmetricKey) != 32 {
		return nil, fmt.Errorf("symmetric key must be exactly 32 bytes, got %d", len(symmetricKey))
	}

	key, err := paseto.V4SymmetricKeyFromBytes(symmetricKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	return &PasetoService{
		symmetricKey: key,
		duration:     duration,
	}, nil
}

// Issue creates a fresh token for subject, valid from now until now plus the
// configured duration. Every call produces a distinct token string.
func (s *PasetoService) Issue(subject string) (string, error) {
	if subject == "" {
		return "", fmt.Errorf("token subject must not be empty")
	}

	now := time.Now()

	token := paseto.NewToken()
	token.SetSubject(subject)
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.duration))

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify validates a token string and returns its claims. Expired tokens are
// distinguished from tokens that fail decryption or parsing.
func (s *PasetoService) Verify(tokenStr string) (*TokenClaims, error) {
	parser := paseto.NewParser()

	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		var ruleErr paseto.RuleError
		if errors.As(err, &ruleErr) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	subject, err := token.GetSubject()
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &TokenClaims{
		Subject:   subject,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
