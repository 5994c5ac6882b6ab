package auth

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLClassification(t *testing.T) {
	assert.True(t, isLoginWall("https://www.linkedin.com/login"))
	assert.True(t, isLoginWall("https://www.linkedin.com/uas/login?session_redirect=x"))
	assert.True(t, isLoginWall("https://www.linkedin.com/home"))
	assert.False(t, isLoginWall("https://www.linkedin.com/feed/"))

	assert.True(t, isChallenge("https://www.linkedin.com/checkpoint/challenge/abc"))
	assert.True(t, isChallenge("https://www.linkedin.com/challenge/verify"))
	assert.False(t, isChallenge("https://www.linkedin.com/feed/"))

	assert.True(t, isAuthenticated("https://www.linkedin.com/feed/"))
	assert.True(t, isAuthenticated("https://www.linkedin.com/feed/?trk=nav"))
	assert.False(t, isAuthenticated("https://www.linkedin.com/login"))
}

func TestAuthError(t *testing.T) {
	cause := errors.New("challenge not solved in time")
	err := &AuthError{Reason: ReasonChallengeTimeout, Err: cause}
	assert.Contains(t, err.Error(), "challenge_timeout")
	assert.ErrorIs(t, err, cause)

	var ae *AuthError
	require.ErrorAs(t, error(err), &ae)
	assert.Equal(t, ReasonChallengeTimeout, ae.Reason)
}

func TestCredentialsFromEnv(t *testing.T) {
	t.Setenv("LINKEDIN_EMAIL", "jane@example.com")
	t.Setenv("LINKEDIN_PASSWORD", "hunter2")
	creds, err := CredentialsFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", creds.Username)

	t.Setenv("LINKEDIN_PASSWORD", "")
	_, err = CredentialsFromEnv()
	assert.Error(t, err)
}
