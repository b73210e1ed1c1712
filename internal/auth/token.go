package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers every verification failure. Callers must not
// distinguish the branches to avoid leaking which check rejected the token.
var ErrInvalidToken = errors.New("invalid or expired token")

// Signer mints and verifies the signed half of an access token: an HS256
// JWT binding the user id and issue time. The jti claim keeps two tokens
// issued in the same second distinct.
type Signer struct {
	secret []byte
	maxAge time.Duration
}

func NewSigner(secret string, maxAge time.Duration) *Signer {
	return &Signer{secret: []byte(secret), maxAge: maxAge}
}

func (s *Signer) Sign(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"sub": float64(userID),
		"iat": time.Now().Unix(),
		"jti": uuid.NewString(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// Verify checks the signature and rejects tokens whose embedded issue time
// is older than the configured max age.
func (s *Signer) Verify(tokenString string) (uint, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})

	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)

	if !ok {
		return 0, ErrInvalidToken
	}

	issuedAt, ok := claims["iat"].(float64)

	if !ok || time.Since(time.Unix(int64(issuedAt), 0)) > s.maxAge {
		return 0, ErrInvalidToken
	}

	userID, ok := claims["sub"].(float64)

	if !ok || userID <= 0 {
		return 0, ErrInvalidToken
	}

	return uint(userID), nil
}
