package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// PurposeReset marks tokens issued by the forgot-password flow. Session tokens
// carry no purpose.
const PurposeReset = "reset"

// ErrInvalidToken covers bad signatures, expired tokens and malformed input.
var ErrInvalidToken = errors.New("invalid token")

// Claims is what a verified token resolves to.
type Claims struct {
	Subject string
	Purpose string
}

type signedClaims struct {
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS256-signed bearer tokens.
type Service struct {
	secret []byte
}

func NewService(secret string) *Service {
	return &Service{secret: []byte(secret)}
}

// Issue returns a signed token for the subject expiring after ttl. Purpose is
// empty for session tokens and PurposeReset for password-reset tokens.
func (s *Service) Issue(subject, purpose string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := signedClaims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify decodes and validates a token. Purpose checking is the caller's job;
// Verify only guarantees signature and expiry.
func (s *Service) Verify(tokenStr string) (Claims, error) {
	var claims signedClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidToken
	}
	if claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return Claims{Subject: claims.Subject, Purpose: claims.Purpose}, nil
}
