package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "s3cret", hash)

	assert.True(t, VerifyPassword(hash, "s3cret"))
	assert.False(t, VerifyPassword(hash, "wrong"))
	assert.False(t, VerifyPassword("not-a-hash", "s3cret"))
}

func TestTokenRoundTrip(t *testing.T) {
	now := time.Now()

	token, err := IssueToken("secret-key", "nikola", now)
	require.NoError(t, err)

	username, err := ParseToken("secret-key", token)
	require.NoError(t, err)
	assert.Equal(t, "nikola", username)
}

func TestTokenRejections(t *testing.T) {
	now := time.Now()
	token, err := IssueToken("secret-key", "nikola", now)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := ParseToken("other-key", token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := ParseToken("secret-key", "abc.def.ghi")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		old, err := IssueToken("secret-key", "nikola", now.Add(-2*TokenTTL))
		require.NoError(t, err)
		_, err = ParseToken("secret-key", old)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
