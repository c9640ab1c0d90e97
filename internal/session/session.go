package session

import (
	"errors"
	"time"

	"github.com/Kyz7/skycast/internal/database"
	"github.com/Kyz7/skycast/internal/models"
	"github.com/Kyz7/skycast/internal/utils"
)

const (
	tokenLength     = 64
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var ErrTokenInvalid = errors.New("invalid or expired refresh token")

// Issue creates a refresh token for the user and returns the plaintext.
// Only the sha256 hash is stored.
func Issue(userID uint) (string, error) {
	rawToken := utils.RandomString(tokenLength)

	rt := models.RefreshToken{
		UserID:    userID,
		TokenHash: utils.HashToken(rawToken),
		ExpiresAt: time.Now().Add(RefreshTokenTTL),
		Revoked:   false,
	}

	if err := database.DB.Create(&rt).Error; err != nil {
		return "", err
	}

	return rawToken, nil
}

// Rotate exchanges a refresh token for a new one exactly once. The
// conditional update on revoked = false is the race guard: of two
// concurrent exchanges of the same token, only one sees RowsAffected == 1.
func Rotate(token string) (uint, string, error) {
	hash := utils.HashToken(token)

	var rt models.RefreshToken
	if err := database.DB.Where("token_hash = ?", hash).First(&rt).Error; err != nil {
		return 0, "", ErrTokenInvalid
	}

	result := database.DB.Model(&models.RefreshToken{}).
		Where("token_hash = ? AND revoked = false AND expires_at > ?", hash, time.Now()).
		Update("revoked", true)
	if result.Error != nil {
		return 0, "", result.Error
	}
	if result.RowsAffected != 1 {
		return 0, "", ErrTokenInvalid
	}

	newToken, err := Issue(rt.UserID)
	if err != nil {
		return 0, "", err
	}

	return rt.UserID, newToken, nil
}

// Revoke deletes a single refresh token. Deleting an absent token is not an
// error, so logout stays idempotent.
func Revoke(token string) error {
	return database.DB.
		Where("token_hash = ?", utils.HashToken(token)).
		Delete(&models.RefreshToken{}).Error
}

// RevokeAllForUser invalidates every session for the user (password reset).
func RevokeAllForUser(userID uint) error {
	return database.DB.
		Where("user_id = ?", userID).
		Delete(&models.RefreshToken{}).Error
}

func SweepExpired() (int64, error) {
	result := database.DB.
		Where("expires_at < ? OR revoked = true", time.Now()).
		Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
