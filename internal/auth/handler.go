package auth

import (
	"errors"
	"regexp"

	"github.com/Kyz7/skycast/internal/response"
	"github.com/gofiber/fiber/v2"
)

var (
	emailRegex    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	codeRegex     = regexp.MustCompile(`^[0-9]{6}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,30}$`)
)

func RequestRegistrationCodeHandler(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if !emailRegex.MatchString(body.Email) {
		return response.ValidationError(c, map[string]string{
			"email": "a valid email is required",
		})
	}

	if err := RequestRegistrationCode(body.Email); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return response.Conflict(c, "Email already registered")
		}
		return response.InternalError(c, "Failed to send verification code")
	}

	return response.Success(c, nil, "Verification code sent")
}

func CompleteRegistrationHandler(c *fiber.Ctx) error {
	var body struct {
		Email    string `json:"email"`
		Code     string `json:"code"`
		Username string `json:"username"`
		Password string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	fields := map[string]string{}
	if !emailRegex.MatchString(body.Email) {
		fields["email"] = "a valid email is required"
	}
	if !codeRegex.MatchString(body.Code) {
		fields["code"] = "code must be exactly 6 digits"
	}
	if !usernameRegex.MatchString(body.Username) {
		fields["username"] = "username must be 3-30 letters, digits or underscores"
	}
	if body.Password == "" {
		fields["password"] = "password is required"
	}
	if len(fields) > 0 {
		return response.ValidationError(c, fields)
	}

	result, err := CompleteRegistration(body.Email, body.Code, body.Username, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode):
			return response.BadRequest(c, "Invalid code or it has expired", nil)
		case errors.Is(err, ErrAlreadyRegistered):
			return response.Conflict(c, "Email already registered")
		case errors.Is(err, ErrDuplicateUsername):
			return response.Conflict(c, "Username already taken")
		case errors.Is(err, ErrWeakPassword):
			return response.ValidationError(c, map[string]string{
				"password": err.Error(),
			})
		}
		return response.InternalError(c, "Failed to complete registration")
	}

	return response.Created(c, fiber.Map{
		"user":          result.User,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
	}, "Registration successful")
}

func ForgotPasswordHandler(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if !emailRegex.MatchString(body.Email) {
		return response.ValidationError(c, map[string]string{
			"email": "a valid email is required",
		})
	}

	if err := RequestPasswordReset(body.Email); err != nil {
		return response.InternalError(c, "Failed to send reset code")
	}

	// Same response whether or not an account exists.
	return response.Success(c, nil, "If account exists, a reset code has been sent")
}

func VerifyResetCodeHandler(c *fiber.Ctx) error {
	var body struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if !emailRegex.MatchString(body.Email) || !codeRegex.MatchString(body.Code) {
		return response.ValidationError(c, map[string]string{
			"email": "a valid email is required",
			"code":  "code must be exactly 6 digits",
		})
	}

	if err := VerifyResetCode(body.Email, body.Code); err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return response.BadRequest(c, "Invalid code or it has expired", nil)
		}
		return response.InternalError(c, "Failed to verify code")
	}

	return response.Success(c, fiber.Map{"verified": true}, "Code verified")
}

func ResetPasswordHandler(c *fiber.Ctx) error {
	var body struct {
		Email       string `json:"email"`
		Code        string `json:"code"`
		NewPassword string `json:"new_password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	fields := map[string]string{}
	if !emailRegex.MatchString(body.Email) {
		fields["email"] = "a valid email is required"
	}
	if !codeRegex.MatchString(body.Code) {
		fields["code"] = "code must be exactly 6 digits"
	}
	if body.NewPassword == "" {
		fields["new_password"] = "new_password is required"
	}
	if len(fields) > 0 {
		return response.ValidationError(c, fields)
	}

	if err := CompletePasswordReset(body.Email, body.Code, body.NewPassword); err != nil {
		switch {
		case errors.Is(err, ErrInvalidCode):
			return response.BadRequest(c, "Invalid code or it has expired", nil)
		case errors.Is(err, ErrWeakPassword):
			return response.ValidationError(c, map[string]string{
				"new_password": err.Error(),
			})
		}
		return response.InternalError(c, "Failed to reset password")
	}

	return response.Success(c, nil, "Password reset successful")
}

func LoginHandler(c *fiber.Ctx) error {
	var body struct {
		Identifier string `json:"identifier"`
		Password   string `json:"password"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.Identifier == "" || body.Password == "" {
		return response.ValidationError(c, map[string]string{
			"identifier": "identifier is required",
			"password":   "password is required",
		})
	}

	result, err := Login(body.Identifier, body.Password)
	if err != nil {
		return response.Unauthorized(c, "Invalid credentials")
	}

	return response.Success(c, fiber.Map{
		"user":          result.User,
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_in":    900,
	}, "Login successful")
}

func RefreshHandler(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if body.RefreshToken == "" {
		return response.ValidationError(c, map[string]string{
			"refresh_token": "refresh_token is required",
		})
	}

	result, err := RefreshSession(body.RefreshToken)
	if err != nil {
		return response.Unauthorized(c, "Invalid or expired refresh token")
	}

	return response.Success(c, fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"expires_in":    900,
	}, "Token refreshed successfully")
}

func LogoutHandler(c *fiber.Ctx) error {
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	if err := Logout(body.RefreshToken); err != nil {
		return response.InternalError(c, "Failed to logout")
	}

	return response.Success(c, nil, "Logout successful")
}
