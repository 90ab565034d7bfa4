package util

import (
	"school_quiz_backend/internal/model"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAttemptTokenCarriesAttemptID(t *testing.T) {
	token, err := GenerateAttemptToken(42, testSecret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.AttemptID)
	assert.Equal(t, model.Respondent, claims.Role)
	assert.Zero(t, claims.UserID)
}

func TestParseJWTRejectsWrongSecret(t *testing.T) {
	token, err := GenerateJWT(&model.User{BaseModel: model.BaseModel{ID: 7}, Role: model.Teacher}, testSecret, time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(token, "another-secret-another-secret-xx")
	assert.Error(t, err)
}

func TestParseJWTRejectsExpiredToken(t *testing.T) {
	token, err := GenerateAttemptToken(1, testSecret, -time.Minute)
	require.NoError(t, err)

	_, err = ParseJWT(token, testSecret)
	assert.Error(t, err)
}
