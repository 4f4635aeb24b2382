package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.NoError(t, VerifyPassword(hash, "correct horse battery"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong"), ErrBadCredentials)
}

func TestHashPasswordRejectsShort(t *testing.T) {
	_, err := HashPassword("short")
	assert.Error(t, err)
}

func newIssuer() Issuer {
	return Issuer{
		Secret:     []byte("test-secret"),
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	}
}

func TestIssueAndVerify(t *testing.T) {
	i := newIssuer()
	pair, err := i.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	uid, err := i.VerifyAccess(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)

	uid, err = i.VerifyRefresh(pair.Refresh)
	require.NoError(t, err)
	assert.Equal(t, "user-1", uid)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	i := newIssuer()
	pair, err := i.Issue("user-1")
	require.NoError(t, err)

	_, err = i.VerifyAccess(pair.Refresh)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = i.VerifyRefresh(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	pair, err := newIssuer().Issue("user-1")
	require.NoError(t, err)

	other := Issuer{Secret: []byte("different"), AccessTTL: time.Minute, RefreshTTL: time.Hour}
	_, err = other.VerifyAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	i := Issuer{Secret: []byte("s"), AccessTTL: -time.Minute, RefreshTTL: -time.Minute}
	pair, err := i.Issue("user-1")
	require.NoError(t, err)

	_, err = i.VerifyAccess(pair.Access)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	_, err := newIssuer().VerifyAccess("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
