package otp_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Kyz7/skycast/internal/database"
	"github.com/Kyz7/skycast/internal/models"
	"github.com/Kyz7/skycast/internal/otp"
	"github.com/Kyz7/skycast/internal/testutils"
	"github.com/stretchr/testify/assert"
)

func setupOTP(t *testing.T) *testutils.MailRecorder {
	database.DB = testutils.TestDB(t)
	return &testutils.MailRecorder{}
}

func TestGenerateCode(t *testing.T) {
	for i := 0; i < 20; i++ {
		code, err := otp.GenerateCode()
		assert.NoError(t, err)
		assert.Regexp(t, `^[0-9]{6}$`, code)
	}
}

func TestIssueAndVerify(t *testing.T) {
	rec := setupOTP(t)

	err := otp.Issue("new@example.com", models.PurposeRegistration, "", rec)
	assert.NoError(t, err)
	assert.Equal(t, "new@example.com", rec.LastTo)
	assert.Regexp(t, `^[0-9]{6}$`, rec.Code())

	// plaintext code is never stored
	var pc models.Passcode
	assert.NoError(t, database.DB.First(&pc).Error)
	assert.NotEqual(t, rec.Code(), pc.CodeHash)
	assert.False(t, pc.Consumed)

	ok, err := otp.Verify("new@example.com", rec.Code(), models.PurposeRegistration)
	assert.NoError(t, err)
	assert.True(t, ok)

	t.Run("consumed code does not verify again", func(t *testing.T) {
		ok, err := otp.Verify("new@example.com", rec.Code(), models.PurposeRegistration)
		assert.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestVerifyWrongCode(t *testing.T) {
	rec := setupOTP(t)

	assert.NoError(t, otp.Issue("new@example.com", models.PurposeRegistration, "", rec))

	wrong := "000000"
	if wrong == rec.Code() {
		wrong = "000001"
	}

	ok, err := otp.Verify("new@example.com", wrong, models.PurposeRegistration)
	assert.NoError(t, err)
	assert.False(t, ok)

	// mismatch must not consume, the real code still works
	ok, err = otp.Verify("new@example.com", rec.Code(), models.PurposeRegistration)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestReissueSupersedesPrevious(t *testing.T) {
	rec := setupOTP(t)

	assert.NoError(t, otp.Issue("new@example.com", models.PurposeRegistration, "", rec))
	first := rec.Code()

	assert.NoError(t, otp.Issue("new@example.com", models.PurposeRegistration, "", rec))
	second := rec.Code()

	// only the newest record exists for the pair
	var count int64
	database.DB.Model(&models.Passcode{}).
		Where("destination = ? AND purpose = ?", "new@example.com", models.PurposeRegistration).
		Count(&count)
	assert.Equal(t, int64(1), count)

	if first != second {
		ok, err := otp.Verify("new@example.com", first, models.PurposeRegistration)
		assert.NoError(t, err)
		assert.False(t, ok, "superseded code must not verify")
	}

	ok, err := otp.Verify("new@example.com", second, models.PurposeRegistration)
	assert.NoError(t, err)
	assert.True(t, ok)
}

func TestExpiredCodeRejected(t *testing.T) {
	rec := setupOTP(t)

	assert.NoError(t, otp.Issue("new@example.com", models.PurposeRegistration, "", rec))

	database.DB.Model(&models.Passcode{}).
		Where("destination = ?", "new@example.com").
		Update("expires_at", time.Now().Add(-1*time.Minute))

	ok, err := otp.Verify("new@example.com", rec.Code(), models.PurposeRegistration)
	assert.NoError(t, err)
	assert.False(t, ok, "expired code must not verify even with the correct value")
}

func TestPurposesAreIndependent(t *testing.T) {
	rec := setupOTP(t)

	assert.NoError(t, otp.Issue("new@example.com", models.PurposeRegistration, "", rec))
	regCode := rec.Code()

	ok, err := otp.Verify("new@example.com", regCode, models.PurposePasswordReset)
	assert.NoError(t, err)
	assert.False(t, ok, "a registration code must not verify as a reset code")
}

func TestCheckDoesNotConsume(t *testing.T) {
	rec := setupOTP(t)

	assert.NoError(t, otp.Issue("new@example.com", models.PurposePasswordReset, "", rec))

	for i := 0; i < 2; i++ {
		ok, err := otp.Check("new@example.com", rec.Code(), models.PurposePasswordReset)
		assert.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := otp.Verify("new@example.com", rec.Code(), models.PurposePasswordReset)
	assert.NoError(t, err)
	assert.True(t, ok, "Check must leave the code consumable")
}

func TestConcurrentVerifyConsumesOnce(t *testing.T) {
	rec := setupOTP(t)

	assert.NoError(t, otp.Issue("new@example.com", models.PurposeRegistration, "", rec))
	code := rec.Code()

	const workers = 8
	results := make(chan bool, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _ := otp.Verify("new@example.com", code, models.PurposeRegistration)
			results <- ok
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for ok := range results {
		if ok {
			successes++
		}
	}
	assert.Equal(t, 1, successes, "exactly one concurrent verify may succeed")
}

func TestSweepExpired(t *testing.T) {
	rec := setupOTP(t)

	assert.NoError(t, otp.Issue("old@example.com", models.PurposeRegistration, "", rec))
	assert.NoError(t, otp.Issue("fresh@example.com", models.PurposeRegistration, "", rec))

	database.DB.Model(&models.Passcode{}).
		Where("destination = ?", "old@example.com").
		Update("expires_at", time.Now().Add(-1*time.Minute))

	n, err := otp.SweepExpired()
	assert.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int64
	database.DB.Model(&models.Passcode{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
