package services

import (
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pizzeria/internal/models"
	"pizzeria/internal/store"
)

func newTokenFixture(t *testing.T) (*TokenService, *store.Store, afero.Fs) {
	t.Helper()
	fs := afero.NewMemMapFs()
	st := store.New(fs, ".data")
	require.NoError(t, st.EnsureCollections("tokens"))
	return NewTokenService(st, time.Hour), st, fs
}

func TestTokenService_IssueAndVerify(t *testing.T) {
	svc, _, _ := newTokenFixture(t)

	token, err := svc.Issue("jane@example.com")
	require.NoError(t, err)
	assert.Len(t, token.ID, 20)
	assert.Equal(t, "jane@example.com", token.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.Expires, 5*time.Second)

	assert.True(t, svc.Verify(token.ID, "jane@example.com"))
}

func TestTokenService_VerifyFailsClosed(t *testing.T) {
	svc, st, fs := newTokenFixture(t)

	token, err := svc.Issue("jane@example.com")
	require.NoError(t, err)

	// Empty and unknown ids.
	assert.False(t, svc.Verify("", "jane@example.com"))
	assert.False(t, svc.Verify("nosuchtokenid1234567", "jane@example.com"))

	// Bound to a different email.
	assert.False(t, svc.Verify(token.ID, "mallory@example.com"))

	// Expired.
	expired := models.Token{ID: "expiredtoken12345678", Email: "jane@example.com", Expires: time.Now().Add(-time.Minute)}
	require.NoError(t, st.Create("tokens", expired.ID, expired))
	assert.False(t, svc.Verify(expired.ID, "jane@example.com"))

	// Unreadable record.
	require.NoError(t, afero.WriteFile(fs, ".data/tokens/corrupttoken12345678.json", []byte("{"), 0o644))
	assert.False(t, svc.Verify("corrupttoken12345678", "jane@example.com"))
}

func TestTokenService_ExtendBoundary(t *testing.T) {
	svc, st, _ := newTokenFixture(t)

	now := time.Now()
	svc.now = func() time.Time { return now }

	// Expiry exactly at now: already expired, cannot be renewed.
	atBoundary := models.Token{ID: "boundarytoken1234567", Email: "jane@example.com", Expires: now}
	require.NoError(t, st.Create("tokens", atBoundary.ID, atBoundary))
	_, err := svc.Extend(atBoundary.ID)
	assert.ErrorIs(t, err, ErrTokenExpired)

	// Expiry a millisecond in the future: extension succeeds and resets the
	// expiry a full TTL from now.
	alive := models.Token{ID: "alivetoken1234567890", Email: "jane@example.com", Expires: now.Add(time.Millisecond)}
	require.NoError(t, st.Create("tokens", alive.ID, alive))
	extended, err := svc.Extend(alive.ID)
	require.NoError(t, err)
	assert.True(t, extended.Expires.Equal(now.Add(time.Hour)))
}

func TestTokenService_ExtendMissing(t *testing.T) {
	svc, _, _ := newTokenFixture(t)
	_, err := svc.Extend("nosuchtokenid1234567")
	assert.Error(t, err)
}

func TestTokenService_Revoke(t *testing.T) {
	svc, _, _ := newTokenFixture(t)

	token, err := svc.Issue("jane@example.com")
	require.NoError(t, err)

	revoked, err := svc.Revoke(token.ID)
	require.NoError(t, err)
	assert.Equal(t, token.ID, revoked.ID)
	assert.False(t, svc.Verify(token.ID, "jane@example.com"))

	_, err = svc.Revoke(token.ID)
	assert.Error(t, err)
}
