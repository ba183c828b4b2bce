package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVerifier(t *testing.T, at time.Time) *Verifier {
	t.Helper()
	v, err := NewVerifier("test-secret")
	require.NoError(t, err)
	v.now = func() time.Time { return at }
	return v
}

func TestSignVerify_RoundTrip(t *testing.T) {
	v := newTestVerifier(t, time.Now())
	id := Identity{RiderID: "rider-1", BarnID: "barn-1"}

	token, err := v.Sign(id, time.Hour)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, id, got)
}

func TestVerify_Expired(t *testing.T) {
	issued := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	token, err := newTestVerifier(t, issued).Sign(Identity{RiderID: "r", BarnID: "b"}, time.Hour)
	require.NoError(t, err)

	_, err = newTestVerifier(t, issued.Add(2*time.Hour)).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerify_WrongSecret(t *testing.T) {
	token, err := newTestVerifier(t, time.Now()).Sign(Identity{RiderID: "r", BarnID: "b"}, time.Hour)
	require.NoError(t, err)

	other, err := NewVerifier("another-secret")
	require.NoError(t, err)
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, claims{
		Barn: "b",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "r",
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	raw, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = newTestVerifier(t, time.Now()).Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerify_MissingBarnClaim(t *testing.T) {
	v := newTestVerifier(t, time.Now())
	token, err := v.Sign(Identity{RiderID: "r"}, time.Hour)
	require.NoError(t, err)

	_, err = v.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestVerify_Empty(t *testing.T) {
	_, err := newTestVerifier(t, time.Now()).Verify("  ")
	assert.ErrorIs(t, err, ErrMissingCredential)

	_, err = newTestVerifier(t, time.Now()).Verify("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestBearerToken(t *testing.T) {
	tok, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	tok, err = BearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", tok)

	_, err = BearerToken("")
	assert.ErrorIs(t, err, ErrMissingCredential)

	_, err = BearerToken("Basic dXNlcjpwYXNz")
	assert.ErrorIs(t, err, ErrInvalidCredential)
}

func TestNewVerifier_EmptySecret(t *testing.T) {
	_, err := NewVerifier("")
	assert.Error(t, err)
}
