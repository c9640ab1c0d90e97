package testutils

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Kyz7/skycast/internal/auth"
	"github.com/Kyz7/skycast/internal/database"
	"github.com/Kyz7/skycast/internal/models"
	"github.com/Kyz7/skycast/internal/server"
	"github.com/Kyz7/skycast/internal/utils"
	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err, "Failed to create test database")

	// In-memory sqlite is per-connection; a single connection keeps every
	// session (including concurrent test goroutines) on the same database.
	sqlDB, err := db.DB()
	assert.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.User{},
		&models.Passcode{},
		&models.RefreshToken{},
		&models.Favorite{},
		&models.WeatherCache{},
	)
	assert.NoError(t, err, "Failed to migrate test database")

	return db
}

// MailRecorder captures outbound passcodes so tests can read the plaintext
// that would normally only exist in the delivered email.
type MailRecorder struct {
	mu        sync.Mutex
	LastTo    string
	LastCode  string
	Purpose   string
	SendCount int
}

func (m *MailRecorder) SendCode(to, purpose, code, displayName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastTo = to
	m.LastCode = code
	m.Purpose = purpose
	m.SendCount++
	return nil
}

func (m *MailRecorder) Code() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LastCode
}

func (m *MailRecorder) Sent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.SendCount
}

func SetupTestApp(t *testing.T) (*fiber.App, *MailRecorder) {
	db := TestDB(t)
	database.DB = db

	recorder := &MailRecorder{}
	auth.Sender = recorder

	app := server.New(db)
	return app, recorder
}

func CreateTestUser(t *testing.T, db *gorm.DB, username, email, password string) *models.User {
	hashedPassword, err := utils.HashPassword(password)
	assert.NoError(t, err, "Failed to hash password")

	user := &models.User{
		Username:      username,
		Email:         email,
		Password:      hashedPassword,
		EmailVerified: true,
	}

	err = db.Create(user).Error
	assert.NoError(t, err, "Failed to create test user")

	return user
}

func GetAuthToken(t *testing.T, user *models.User) string {
	token, err := utils.GenerateJWT(user.ID, user.Username, user.Email)
	assert.NoError(t, err, "Failed to generate test token")
	return token
}

func MakeRequest(app *fiber.App, method, url string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(jsonBody)
	}

	req := httptest.NewRequest(method, url, bodyReader)
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()

	resp, err := app.Test(req, -1)
	if err != nil {
		return rec, err
	}

	rec.Code = resp.StatusCode

	io.Copy(rec.Body, resp.Body)
	resp.Body.Close()

	return rec, nil
}

func ParseResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	if resp.Body.Len() == 0 {
		t.Log("Warning: Response body is empty")
		return
	}

	err := json.NewDecoder(resp.Body).Decode(v)
	if err != nil && err != io.EOF {
		t.Logf("Response body: %s", resp.Body.String())
		assert.NoError(t, err, "Failed to parse response")
	}
}

type StandardResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    interface{}  `json:"data"`
	Error   *ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details"`
}

func AssertSuccess(t *testing.T, resp *httptest.ResponseRecorder) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.True(t, result.Success, "Expected success response")
	assert.Empty(t, result.Error, "Expected no error")
}

func AssertError(t *testing.T, resp *httptest.ResponseRecorder, expectedCode string) {
	var result StandardResponse
	ParseResponse(t, resp, &result)
	assert.False(t, result.Success, "Expected error response")
	assert.NotNil(t, result.Error, "Expected error object")
	if result.Error != nil {
		assert.Equal(t, expectedCode, result.Error.Code, "Error code mismatch")
	}
}
