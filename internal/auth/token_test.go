package auth

import (
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/incident-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 30, "incident-service")
	identity := &domain.Identity{ID: "u-1", Name: "Ada", Email: "ada@example.com"}

	token, err := tm.GenerateToken(identity)
	require.NoError(t, err)
	require.Equal(t, "u-1", token.SubjectID)
	require.WithinDuration(t, token.IssuedAt.Add(30*time.Minute), token.ExpiresAt, time.Second)

	claims, err := tm.ParseToken(token.Value)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.Subject)
	require.Equal(t, "Ada", claims.Name)
	require.Equal(t, "ada@example.com", claims.Email)
}

func TestTokenRejectsWrongSecretAndExpiry(t *testing.T) {
	issuer := NewTokenManager("secret", 1, "")
	token, err := issuer.GenerateToken(&domain.Identity{ID: "u-1"})
	require.NoError(t, err)

	_, err = NewTokenManager("other", 1, "").ParseToken(token.Value)
	require.Error(t, err)

	later := NewTokenManager("secret", 1, "")
	later.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = later.ParseToken(token.Value)
	require.Error(t, err)
}

func TestTokenRejectsOtherAlgorithms(t *testing.T) {
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "u-1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = NewTokenManager("secret", 10, "").ParseToken(unsigned)
	require.Error(t, err)
}

func TestGenerateTokenRequiresIdentity(t *testing.T) {
	_, err := NewTokenManager("secret", 10, "").GenerateToken(nil)
	require.Error(t, err)
}

func TestHasher(t *testing.T) {
	h := NewHasher(4)
	require.Equal(t, 4, h.Cost())

	hashed, err := h.Hash("correct horse")
	require.NoError(t, err)
	require.NotEqual(t, "correct horse", hashed)
	require.NoError(t, h.Compare(hashed, "correct horse"))
	require.Error(t, h.Compare(hashed, "wrong horse"))

	h.CompareDummy("anything")
	require.NotEmpty(t, h.dummy)

	require.Equal(t, 10, NewHasher(99).Cost())
}
