package auth

import (
	"testing"
	"time"

	"github.com/Azhc/chat-backend/internal/errs"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec("test-secret", "HS256")
	require.NoError(t, err)
	return codec
}

func TestTokenCodec_Roundtrip(t *testing.T) {
	codec := newTestCodec(t)

	token, expiresAt, err := codec.Encode("c-alice01", 15*time.Minute)
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	subject, err := codec.Decode(token)
	require.NoError(t, err)
	require.Equal(t, "c-alice01", subject)
}

func TestTokenCodec_ExpiredClassifiesAsExpired(t *testing.T) {
	codec := newTestCodec(t)

	token, _, err := codec.Encode("c-alice01", -time.Minute)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	var authErr *errs.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, errs.TokenExpired, authErr.Kind)
}

func TestTokenCodec_TamperedClassifiesAsMalformed(t *testing.T) {
	codec := newTestCodec(t)

	token, _, err := codec.Encode("c-alice01", 15*time.Minute)
	require.NoError(t, err)

	// Flip the last signature byte.
	last := token[len(token)-1]
	flipped := byte('A')
	if last == 'A' {
		flipped = 'B'
	}
	tampered := token[:len(token)-1] + string(flipped)

	_, err = codec.Decode(tampered)
	var authErr *errs.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, errs.TokenMalformed, authErr.Kind)
}

func TestTokenCodec_GarbageClassifiesAsMalformed(t *testing.T) {
	codec := newTestCodec(t)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		_, err := codec.Decode(token)
		var authErr *errs.AuthError
		require.ErrorAs(t, err, &authErr)
		require.Equal(t, errs.TokenMalformed, authErr.Kind)
	}
}

func TestTokenCodec_ValidSignatureWithoutSubject(t *testing.T) {
	codec := newTestCodec(t)

	// Signed with the right secret but carrying no user_id claim.
	raw := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Decode(token)
	var authErr *errs.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, errs.IdentityUnresolvable, authErr.Kind)
}

func TestTokenCodec_RejectsWrongAlgorithm(t *testing.T) {
	codec := newTestCodec(t)

	raw := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"user_id": "c-alice01",
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	token, err := raw.SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = codec.Decode(token)
	var authErr *errs.AuthError
	require.ErrorAs(t, err, &authErr)
	require.Equal(t, errs.TokenMalformed, authErr.Kind)
}

func TestNewTokenCodec_Misconfiguration(t *testing.T) {
	_, err := NewTokenCodec("", "HS256")
	require.Error(t, err)

	_, err = NewTokenCodec("secret", "NOPE256")
	require.Error(t, err)

	_, err = NewTokenCodec("secret", "RS256")
	require.Error(t, err)
}
