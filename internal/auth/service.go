package auth

import (
	"errors"
	"strings"

	"github.com/Kyz7/skycast/internal/database"
	"github.com/Kyz7/skycast/internal/mailer"
	"github.com/Kyz7/skycast/internal/models"
	"github.com/Kyz7/skycast/internal/otp"
	"github.com/Kyz7/skycast/internal/session"
	"github.com/Kyz7/skycast/internal/utils"
)

// Sender delivers passcodes. Wired at startup; tests swap in a recorder.
var Sender mailer.Sender = mailer.LogSender{}

var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrDuplicateUsername  = errors.New("username already taken")
	ErrAlreadyRegistered  = errors.New("account already registered")
	ErrInvalidCode        = errors.New("invalid code or it has expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired refresh token")
	ErrWeakPassword       = errors.New("password must be between 8 and 72 characters")
)

type AuthResult struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

func validatePassword(password string) error {
	if len(password) < 8 || len(password) > 72 {
		return ErrWeakPassword
	}
	return nil
}

// RequestRegistrationCode starts the registration flow. Identities only
// exist once verified, so any match means the address is taken.
func RequestRegistrationCode(email string) error {
	var existing models.User
	if err := database.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return ErrDuplicateEmail
	}

	return otp.Issue(email, models.PurposeRegistration, "", Sender)
}

// CompleteRegistration consumes the passcode and creates the identity. The
// availability re-check covers identities created between request and
// completion; the unique indexes are the last line for true races.
func CompleteRegistration(email, code, username, password string) (*AuthResult, error) {
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	ok, err := otp.Verify(email, code, models.PurposeRegistration)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidCode
	}

	var existing models.User
	if err := database.DB.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrAlreadyRegistered
	}
	if err := database.DB.Where("username = ?", username).First(&existing).Error; err == nil {
		return nil, ErrDuplicateUsername
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := models.User{
		Username:      username,
		Email:         email,
		Password:      hash,
		EmailVerified: true,
	}
	if err := database.DB.Create(&u).Error; err != nil {
		return nil, ErrAlreadyRegistered
	}

	result, err := issueTokens(&u)
	if err != nil {
		return nil, err
	}

	if err := otp.DeleteConsumed(email, models.PurposeRegistration); err != nil {
		return nil, err
	}

	return result, nil
}

// RequestPasswordReset always reports success so callers can't probe which
// addresses have accounts. A passcode is only issued when one exists.
func RequestPasswordReset(email string) error {
	var u models.User
	if err := database.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return nil
	}

	return otp.Issue(email, models.PurposePasswordReset, u.Username, Sender)
}

// VerifyResetCode is a non-consuming validity check, so the client can
// pre-validate the code and then submit it again with the new password.
func VerifyResetCode(email, code string) error {
	ok, err := otp.Check(email, code, models.PurposePasswordReset)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}
	return nil
}

// CompletePasswordReset is the single consuming reset operation: verify and
// consume the code, replace the password hash, revoke every session.
func CompletePasswordReset(email, code, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	ok, err := otp.Verify(email, code, models.PurposePasswordReset)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCode
	}

	var u models.User
	if err := database.DB.Where("email = ?", email).First(&u).Error; err != nil {
		return ErrInvalidCode
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := database.DB.Model(&u).Update("password", hash).Error; err != nil {
		return err
	}

	if err := session.RevokeAllForUser(u.ID); err != nil {
		return err
	}

	return otp.DeleteConsumed(email, models.PurposePasswordReset)
}

// Login resolves the identifier as email first when it looks like one, then
// falls back to username. Every failure path returns the same error, and
// the missing-account path still pays for a hash comparison.
func Login(identifier, password string) (*AuthResult, error) {
	var u models.User
	var err error

	if strings.Contains(identifier, "@") {
		err = database.DB.Where("email = ?", identifier).First(&u).Error
		if err != nil {
			err = database.DB.Where("username = ?", identifier).First(&u).Error
		}
	} else {
		err = database.DB.Where("username = ?", identifier).First(&u).Error
	}

	if err != nil {
		utils.DummyPasswordCheck(password)
		return nil, ErrInvalidCredentials
	}

	if !utils.CheckPasswordHash(password, u.Password) {
		return nil, ErrInvalidCredentials
	}

	return issueTokens(&u)
}

// RefreshSession rotates the refresh token (exactly once per token) and
// mints a fresh access token for its owner.
func RefreshSession(token string) (*AuthResult, error) {
	userID, newToken, err := session.Rotate(token)
	if err != nil {
		if errors.Is(err, session.ErrTokenInvalid) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	var u models.User
	if err := database.DB.First(&u, userID).Error; err != nil {
		return nil, ErrInvalidToken
	}

	accessToken, err := utils.GenerateJWT(u.ID, u.Username, u.Email)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: &u, AccessToken: accessToken, RefreshToken: newToken}, nil
}

// Logout revokes the refresh token. Idempotent: an absent token is fine.
func Logout(token string) error {
	return session.Revoke(token)
}

func issueTokens(u *models.User) (*AuthResult, error) {
	accessToken, err := utils.GenerateJWT(u.ID, u.Username, u.Email)
	if err != nil {
		return nil, err
	}

	refreshToken, err := session.Issue(u.ID)
	if err != nil {
		return nil, err
	}

	return &AuthResult{User: u, AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
