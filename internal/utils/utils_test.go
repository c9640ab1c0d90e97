package utils_test

import (
	"testing"

	"github.com/Kyz7/skycast/internal/utils"
	"github.com/stretchr/testify/assert"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := utils.HashPassword("Str0ngPass!")
	assert.NoError(t, err)
	assert.NotEqual(t, "Str0ngPass!", hash)

	assert.True(t, utils.CheckPasswordHash("Str0ngPass!", hash))
	assert.False(t, utils.CheckPasswordHash("wrongpass", hash))
}

func TestJWTRoundTrip(t *testing.T) {
	token, err := utils.GenerateJWT(42, "alice", "alice@example.com")
	assert.NoError(t, err)

	userID, err := utils.ParseJWT(token)
	assert.NoError(t, err)
	assert.Equal(t, uint(42), userID)
}

func TestParseJWTRejectsGarbage(t *testing.T) {
	_, err := utils.ParseJWT("not.a.token")
	assert.Error(t, err)
}

func TestRandomStringLengthAndCharset(t *testing.T) {
	s := utils.RandomString(64)
	assert.Len(t, s, 64)
	assert.Regexp(t, `^[a-zA-Z0-9]+$`, s)

	assert.NotEqual(t, s, utils.RandomString(64))
}

func TestHashTokenIsStable(t *testing.T) {
	assert.Equal(t, utils.HashToken("abc"), utils.HashToken("abc"))
	assert.NotEqual(t, utils.HashToken("abc"), utils.HashToken("abd"))
	assert.Len(t, utils.HashToken("abc"), 64)
}
