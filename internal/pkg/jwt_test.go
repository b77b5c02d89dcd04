package pkg

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret")

	pair, err := issuer.GeneratePair(42)
	require.NoError(t, err)

	claims, err := issuer.ParseAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)

	claims, err = issuer.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), claims.UserID)
}

func TestTokenIssuer_RejectsSwappedTokens(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret")
	pair, err := issuer.GeneratePair(1)
	require.NoError(t, err)

	_, err = issuer.ParseAccess(pair.RefreshToken)
	assert.Error(t, err)
	_, err = issuer.ParseRefresh(pair.AccessToken)
	assert.Error(t, err)
}

func TestTokenIssuer_PairsAreUnique(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret")
	fixed := time.Now()
	issuer.now = func() time.Time { return fixed }

	a, err := issuer.GeneratePair(3)
	require.NoError(t, err)
	b, err := issuer.GeneratePair(3)
	require.NoError(t, err)
	assert.NotEqual(t, a.AccessToken, b.AccessToken)
	assert.NotEqual(t, a.RefreshToken, b.RefreshToken)
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer("access-secret", "refresh-secret")
	issuer.now = func() time.Time { return time.Now().Add(-2 * AccessTTL) }
	pair, err := issuer.GeneratePair(7)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.ParseAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRandDigits(t *testing.T) {
	code, err := RandDigits(ResetCodeLength)
	require.NoError(t, err)
	assert.Len(t, code, ResetCodeLength)
	for _, r := range code {
		assert.True(t, r >= '0' && r <= '9')
	}
}
