package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/incident-service/internal/config"
	apperrors "github.com/spec-kit/incident-service/pkg/util"
)

func TestRegisterThenDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.auth.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@x.com", Password: "password1"})
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	_, err = env.auth.Register(ctx, RegisterInput{Name: "Ada2", Email: "ada@x.com", Password: "password2"})
	require.ErrorIs(t, err, ErrDuplicateEmail)
	require.Equal(t, "DUPLICATE_EMAIL", apperrors.ToDomainError(err).Code)
}

func TestRegisterValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := map[string]RegisterInput{
		"name":     {Name: "A", Email: "a@x.com", Password: "password1"},
		"email":    {Name: "Ada", Email: "not-an-email", Password: "password1"},
		"password": {Name: "Ada", Email: "a@x.com", Password: "short"},
	}
	for field, input := range cases {
		_, err := env.auth.Register(ctx, input)
		domainErr := apperrors.ToDomainError(err)
		require.Equal(t, "VALIDATION_FAILED", domainErr.Code, field)
		require.Contains(t, domainErr.Details, field)
	}

	_, err := env.users.GetByEmail(ctx, "a@x.com")
	require.Error(t, err)
}

func TestRegisterDisabled(t *testing.T) {
	env := newTestEnv(t)
	closed := NewAuthService(config.AuthConfig{JWTSecret: "s", BcryptCost: 4}, "x", env.users, zap.NewNop())
	_, err := closed.Register(context.Background(), RegisterInput{Name: "Ada", Email: "ada@x.com", Password: "password1"})
	require.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestConcurrentRegistrationSameEmail(t *testing.T) {
	env := newTestEnv(t)

	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		failures []error
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := env.auth.Register(context.Background(), RegisterInput{
				Name:     fmt.Sprintf("User %d", i),
				Email:    "same@x.com",
				Password: "password1",
			})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			failures = append(failures, err)
		}(i)
	}
	wg.Wait()

	require.Equal(t, 1, success)
	require.Len(t, failures, attempts-1)
	for _, err := range failures {
		require.ErrorIs(t, err, ErrDuplicateEmail)
	}
}

func TestPasswordOpacityAndAuthenticate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.auth.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@x.com", Password: "password1"})
	require.NoError(t, err)

	stored, err := env.users.GetByEmail(ctx, "ada@x.com")
	require.NoError(t, err)
	require.NotEqual(t, "password1", stored.PasswordHash)

	identity, err := env.auth.Authenticate(ctx, "ada@x.com", "password1")
	require.NoError(t, err)
	require.Equal(t, stored.ID, identity.ID)
	require.Equal(t, "Ada", identity.Name)

	_, wrongPassword := env.auth.Authenticate(ctx, "ada@x.com", "password2")
	_, unknownEmail := env.auth.Authenticate(ctx, "nobody@x.com", "password1")
	_, empty := env.auth.Authenticate(ctx, "", "")
	for _, err := range []error{wrongPassword, unknownEmail, empty} {
		require.ErrorIs(t, err, ErrInvalidCredentials)
		require.Equal(t, ErrInvalidCredentials.Message, apperrors.ToDomainError(err).Message)
	}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user, err := env.auth.Register(ctx, RegisterInput{Name: "Ada", Email: "ada@x.com", Password: "password1"})
	require.NoError(t, err)

	identity, token, err := env.auth.Login(ctx, "ada@x.com", "password1")
	require.NoError(t, err)
	require.Equal(t, user.ID, identity.ID)

	claims, err := env.auth.TokenManager().ParseToken(token.Value)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)
	require.Equal(t, "ada@x.com", claims.Email)

	me, err := env.auth.Me(ctx, identity)
	require.NoError(t, err)
	require.Equal(t, identity, me)

	_, err = env.auth.Me(ctx, nil)
	require.ErrorIs(t, err, ErrUnauthorized)
}
