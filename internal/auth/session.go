package auth

import (
	"errors"
	"time"

	"github.com/devevents/devevents/internal/models"
	"gorm.io/gorm"
)

// SessionManager layers server-side revocation on top of stateless signing.
// A token is accepted only when its signature verifies within the max-age
// window AND a matching persisted record exists and has not expired, so
// deleting the records kills sessions the signed token alone would still
// allow.
type SessionManager struct {
	db     *gorm.DB
	signer *Signer
	ttl    time.Duration
}

func NewSessionManager(conn *gorm.DB, secret string, ttl time.Duration) *SessionManager {
	return &SessionManager{
		db:     conn,
		signer: NewSigner(secret, ttl),
		ttl:    ttl,
	}
}

// Issue signs a token for the user and persists its record with an
// absolute expiry. Multiple live tokens per user are allowed.
func (m *SessionManager) Issue(userID uint) (string, error) {
	token, err := m.signer.Sign(userID)

	if err != nil {
		return "", err
	}

	record := models.AccessToken{
		Token:     token,
		UserID:    userID,
		ExpiresAt: time.Now().Add(m.ttl),
	}

	if err := m.db.Create(&record).Error; err != nil {
		return "", err
	}

	return token, nil
}

// Resolve returns the user the token belongs to, or ErrInvalidToken for
// every verification failure.
func (m *SessionManager) Resolve(tokenString string) (*models.User, error) {
	if _, err := m.signer.Verify(tokenString); err != nil {
		return nil, ErrInvalidToken
	}

	var record models.AccessToken

	if err := m.db.Where("token = ?", tokenString).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if time.Now().After(record.ExpiresAt) {
		return nil, ErrInvalidToken
	}

	var user models.User

	if err := m.db.First(&user, record.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return &user, nil
}

// RevokeAll deletes every token record for the user. Logout and account
// deletion invalidate all of the user's sessions, not just the presenting
// one.
func (m *SessionManager) RevokeAll(userID uint) error {
	return m.db.Unscoped().Where("user_id = ?", userID).Delete(&models.AccessToken{}).Error
}
