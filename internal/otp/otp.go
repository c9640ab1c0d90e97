// Package otp issues and verifies one-time passcodes for email ownership
// proofs. Codes are 6 decimal digits, live for 5 minutes, are stored only as
// bcrypt hashes, and can be consumed at most once.
package otp

import (
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/Kyz7/skycast/internal/database"
	"github.com/Kyz7/skycast/internal/mailer"
	"github.com/Kyz7/skycast/internal/models"
	"golang.org/x/crypto/bcrypt"
)

const CodeTTL = 5 * time.Minute

// GenerateCode returns a uniform random 6-digit decimal code, zero-padded.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Issue generates a fresh passcode for (destination, purpose), supersedes
// any previously issued unconsumed code for the same pair, and hands the
// plaintext to the sender for delivery. Delivery failure is non-fatal: the
// code is already valid, the caller just can't promise it arrived.
func Issue(destination, purpose, displayName string, sender mailer.Sender) error {
	code, err := GenerateCode()
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if err := database.DB.
		Where("destination = ? AND purpose = ? AND consumed = false", destination, purpose).
		Delete(&models.Passcode{}).Error; err != nil {
		return err
	}

	pc := models.Passcode{
		Destination: destination,
		Purpose:     purpose,
		CodeHash:    string(hash),
		ExpiresAt:   time.Now().Add(CodeTTL),
	}
	if err := database.DB.Create(&pc).Error; err != nil {
		return err
	}

	if err := sender.SendCode(destination, purpose, code, displayName); err != nil {
		log.Printf("⚠️  Failed to deliver %s code to %s: %v", purpose, destination, err)
	}

	return nil
}

func findActive(destination, purpose string) (*models.Passcode, error) {
	var pc models.Passcode
	err := database.DB.
		Where("destination = ? AND purpose = ? AND consumed = false AND expires_at > ?",
			destination, purpose, time.Now()).
		Order("created_at DESC").
		First(&pc).Error
	if err != nil {
		return nil, err
	}
	return &pc, nil
}

// Verify checks the submitted code against the newest active passcode for
// (destination, purpose) and consumes it on match. The conditional update on
// consumed = false makes consumption race-safe: two concurrent calls with
// the correct code yield exactly one true.
func Verify(destination, code, purpose string) (bool, error) {
	pc, err := findActive(destination, purpose)
	if err != nil {
		return false, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(pc.CodeHash), []byte(code)) != nil {
		return false, nil
	}

	result := database.DB.Model(&models.Passcode{}).
		Where("id = ? AND consumed = false", pc.ID).
		Update("consumed", true)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// Check compares the submitted code without consuming it. Used by the reset
// flow's dry-run verification step; the consuming step is always the
// atomic verify-and-apply call.
func Check(destination, code, purpose string) (bool, error) {
	pc, err := findActive(destination, purpose)
	if err != nil {
		return false, nil
	}

	return bcrypt.CompareHashAndPassword([]byte(pc.CodeHash), []byte(code)) == nil, nil
}

// DeleteConsumed removes the consumed passcode row once its flow completed.
func DeleteConsumed(destination, purpose string) error {
	return database.DB.
		Where("destination = ? AND purpose = ? AND consumed = true", destination, purpose).
		Delete(&models.Passcode{}).Error
}

func SweepExpired() (int64, error) {
	result := database.DB.
		Where("expires_at < ?", time.Now()).
		Delete(&models.Passcode{})
	return result.RowsAffected, result.Error
}
