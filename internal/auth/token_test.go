package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaleidoscope/internal/domain"
)

func TestManager_IssueAndVerify(t *testing.T) {
	m := NewManager("test-secret")

	access, err := m.Issue("user-1", TokenAccess)
	require.NoError(t, err)

	userID, err := m.Verify(access, TokenAccess)
	require.NoError(t, err)
	assert.Equal(t, "user-1", userID)
}

func TestManager_RejectsWrongType(t *testing.T) {
	m := NewManager("test-secret")

	refresh, err := m.Issue("user-1", TokenRefresh)
	require.NoError(t, err)

	// A refresh token must not pass as an access token, and vice versa.
	_, err = m.Verify(refresh, TokenAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	access, err := m.Issue("user-1", TokenAccess)
	require.NoError(t, err)

	_, err = m.Verify(access, TokenRefresh)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestManager_RejectsForeignSecret(t *testing.T) {
	theirs := NewManager("their-secret")
	ours := NewManager("our-secret")

	token, err := theirs.Issue("user-1", TokenAccess)
	require.NoError(t, err)

	_, err = ours.Verify(token, TokenAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestManager_RejectsGarbage(t *testing.T) {
	m := NewManager("test-secret")

	_, err := m.Verify("not-a-token", TokenAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = m.Verify("", TokenAccess)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("hunter22")
	require.NoError(t, err)
	assert.NotEqual(t, "hunter22", hash)

	assert.True(t, CheckPasswordHash("hunter22", hash))
	assert.False(t, CheckPasswordHash("hunter23", hash))
}
