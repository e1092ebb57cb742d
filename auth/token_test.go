package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rpupo63/collage-backend/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key interface{}) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	token, err = BearerToken("bearer \t xyz")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	for _, header := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc"} {
		_, err := BearerToken(header)
		assert.ErrorIs(t, err, errs.ErrMissingToken, header)
	}
}

func TestVerifyIssuedToken(t *testing.T) {
	token, err := Issue(testSecret, "ops", time.Hour)
	require.NoError(t, err)

	claims, err := NewVerifier(testSecret).Verify(token)
	require.NoError(t, err)
	assert.Equal(t, AdminRole, claims.Role)
	assert.Equal(t, "ops", claims.Subject)
}

func TestVerifyWithoutExpiry(t *testing.T) {
	token, err := Issue(testSecret, "ops", 0)
	require.NoError(t, err)

	_, err = NewVerifier(testSecret).Verify(token)
	assert.NoError(t, err)
}

func TestVerifyExpired(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, Claims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Unix(1_700_000_000, 0)),
		},
	}, []byte(testSecret))

	verifier := NewVerifier(testSecret)
	_, err := verifier.Verify(token)
	assert.True(t, errs.IsExpiredTokenError(err))

	// exp is exclusive: the token is already expired at exp itself
	atExpiry := verifier.WithClock(func() time.Time { return time.Unix(1_700_000_000, 0) })
	_, err = atExpiry.Verify(token)
	assert.True(t, errs.IsExpiredTokenError(err))

	before := verifier.WithClock(func() time.Time { return time.Unix(1_699_999_000, 0) })
	_, err = before.Verify(token)
	assert.NoError(t, err)
}

func TestVerifyRejectsWrongRole(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, Claims{Role: "editor"}, []byte(testSecret))

	_, err := NewVerifier(testSecret).Verify(token)
	assert.True(t, errs.IsInsufficientRoleError(err))
}

func TestVerifyRejectsBadSignature(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, Claims{Role: AdminRole}, []byte("other-secret"))

	_, err := NewVerifier(testSecret).Verify(token)
	assert.True(t, errs.IsInvalidTokenError(err))
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	hs512 := sign(t, jwt.SigningMethodHS512, Claims{Role: AdminRole}, []byte(testSecret))
	_, err := NewVerifier(testSecret).Verify(hs512)
	assert.True(t, errs.IsInvalidTokenError(err))

	none := sign(t, jwt.SigningMethodNone, Claims{Role: AdminRole}, jwt.UnsafeAllowNoneSignatureType)
	_, err = NewVerifier(testSecret).Verify(none)
	assert.True(t, errs.IsInvalidTokenError(err))
}

func TestVerifyRejectsMalformed(t *testing.T) {
	for _, token := range []string{"abc", "a.b", "a.b.c", "..."} {
		_, err := NewVerifier(testSecret).Verify(token)
		assert.True(t, errs.IsInvalidTokenError(err), token)
	}
}

func TestEmptySecretRejectsEverything(t *testing.T) {
	token := sign(t, jwt.SigningMethodHS256, Claims{Role: AdminRole}, []byte(testSecret))

	_, err := NewVerifier("").Verify(token)
	assert.ErrorIs(t, err, errs.ErrSecretMissing)

	_, err = Issue("", "ops", time.Hour)
	assert.ErrorIs(t, err, errs.ErrSecretMissing)
}

func TestVerifyHeader(t *testing.T) {
	token, err := Issue(testSecret, "ops", time.Hour)
	require.NoError(t, err)

	_, err = NewVerifier(testSecret).VerifyHeader("Bearer " + token)
	assert.NoError(t, err)

	_, err = NewVerifier(testSecret).VerifyHeader(token)
	assert.True(t, errs.IsMissingTokenError(err))
}
