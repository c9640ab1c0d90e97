package session_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Kyz7/skycast/internal/database"
	"github.com/Kyz7/skycast/internal/models"
	"github.com/Kyz7/skycast/internal/session"
	"github.com/Kyz7/skycast/internal/testutils"
	"github.com/Kyz7/skycast/internal/utils"
	"github.com/stretchr/testify/assert"
)

func setupSession(t *testing.T) *models.User {
	database.DB = testutils.TestDB(t)
	return testutils.CreateTestUser(t, database.DB, "alice", "alice@example.com", "password123")
}

func TestIssueStoresHashOnly(t *testing.T) {
	user := setupSession(t)

	token, err := session.Issue(user.ID)
	assert.NoError(t, err)
	assert.Len(t, token, 64)

	var rt models.RefreshToken
	assert.NoError(t, database.DB.First(&rt).Error)
	assert.NotEqual(t, token, rt.TokenHash)
	assert.Equal(t, user.ID, rt.UserID)
	assert.False(t, rt.Revoked)
}

func TestRotateExactlyOnce(t *testing.T) {
	user := setupSession(t)

	token, err := session.Issue(user.ID)
	assert.NoError(t, err)

	userID, newToken, err := session.Rotate(token)
	assert.NoError(t, err)
	assert.Equal(t, user.ID, userID)
	assert.NotEqual(t, token, newToken)

	t.Run("old token is spent", func(t *testing.T) {
		_, _, err := session.Rotate(token)
		assert.ErrorIs(t, err, session.ErrTokenInvalid)
	})

	t.Run("new token rotates", func(t *testing.T) {
		_, _, err := session.Rotate(newToken)
		assert.NoError(t, err)
	})
}

func TestRotateUnknownToken(t *testing.T) {
	setupSession(t)

	_, _, err := session.Rotate("definitely-not-a-token")
	assert.ErrorIs(t, err, session.ErrTokenInvalid)
}

func TestRotateExpiredToken(t *testing.T) {
	user := setupSession(t)

	token, err := session.Issue(user.ID)
	assert.NoError(t, err)

	database.DB.Model(&models.RefreshToken{}).
		Where("user_id = ?", user.ID).
		Update("expires_at", time.Now().Add(-1*time.Minute))

	_, _, err = session.Rotate(token)
	assert.ErrorIs(t, err, session.ErrTokenInvalid)
}

func TestRevokeIsIdempotent(t *testing.T) {
	user := setupSession(t)

	token, err := session.Issue(user.ID)
	assert.NoError(t, err)

	assert.NoError(t, session.Revoke(token))
	assert.NoError(t, session.Revoke(token))

	_, _, err = session.Rotate(token)
	assert.ErrorIs(t, err, session.ErrTokenInvalid)
}

func TestRevokeAllForUser(t *testing.T) {
	user := setupSession(t)
	other := testutils.CreateTestUser(t, database.DB, "bob", "bob@example.com", "password123")

	tokens := make([]string, 3)
	for i := range tokens {
		tok, err := session.Issue(user.ID)
		assert.NoError(t, err)
		tokens[i] = tok
	}
	otherToken, err := session.Issue(other.ID)
	assert.NoError(t, err)

	assert.NoError(t, session.RevokeAllForUser(user.ID))

	for _, tok := range tokens {
		_, _, err := session.Rotate(tok)
		assert.ErrorIs(t, err, session.ErrTokenInvalid)
	}

	// other users keep their sessions
	_, _, err = session.Rotate(otherToken)
	assert.NoError(t, err)
}

func TestConcurrentRotateExactlyOnce(t *testing.T) {
	user := setupSession(t)

	token, err := session.Issue(user.ID)
	assert.NoError(t, err)

	const workers = 8
	results := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := session.Rotate(token)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for err := range results {
		if err == nil {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "a refresh token can be exchanged exactly once")
}

func TestSweepExpired(t *testing.T) {
	user := setupSession(t)

	expired, err := session.Issue(user.ID)
	assert.NoError(t, err)
	_, err = session.Issue(user.ID)
	assert.NoError(t, err)

	database.DB.Model(&models.RefreshToken{}).
		Where("token_hash = ?", utils.HashToken(expired)).
		Update("expires_at", time.Now().Add(-1*time.Minute))

	n, err := session.SweepExpired()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int64
	database.DB.Model(&models.RefreshToken{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
