package interceptors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := IssueAccessToken(secret, "user-42", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(secret, token)
	require.NoError(t, err)
	assert.Equal(t, "user-42", claims.Subject)
}

func TestValidateAccessToken_Rejects(t *testing.T) {
	expired, err := IssueAccessToken(secret, "user-42", -time.Minute)
	require.NoError(t, err)

	otherKey, err := IssueAccessToken([]byte("other"), "user-42", time.Hour)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}).SignedString(secret)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject: "user-42",
	}}).SignedString(secret)
	require.NoError(t, err)

	tests := map[string]string{
		"expired":     expired,
		"wrong key":   otherKey,
		"no subject":  noSubject,
		"no expiry":   noExpiry,
		"not a token": "abc.def",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateAccessToken(secret, token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("Bearer abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	token, err = bearerToken("bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	for _, bad := range []string{"", "Bearer", "Basic abc", "Bearer   "} {
		_, err := bearerToken(bad)
		assert.ErrorIs(t, err, ErrMissingToken, bad)
	}
}

func callWith(t *testing.T, interceptor connect.UnaryInterceptorFunc, header string) (string, error) {
	t.Helper()
	var seen string
	next := connect.UnaryFunc(func(ctx context.Context, _ connect.AnyRequest) (connect.AnyResponse, error) {
		seen, _ = GetUserIDFromContext(ctx)
		return connect.NewResponse(&struct{}{}), nil
	})

	req := connect.NewRequest(&struct{}{})
	if header != "" {
		req.Header().Set("Authorization", header)
	}
	_, err := interceptor(next)(context.Background(), req)
	return seen, err
}

func TestAuthInterceptor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	interceptor := NewAuthInterceptor(secret, logger)

	token, err := IssueAccessToken(secret, "user-42", time.Hour)
	require.NoError(t, err)

	t.Run("valid token sets the user id", func(t *testing.T) {
		userID, err := callWith(t, interceptor, "Bearer "+token)
		require.NoError(t, err)
		assert.Equal(t, "user-42", userID)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := callWith(t, interceptor, "")
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})

	t.Run("bad token", func(t *testing.T) {
		_, err := callWith(t, interceptor, "Bearer nope")
		assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
	})
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewRateLimiter(1, 2)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("a"))
	assert.True(t, l.Allow("a"))
	assert.False(t, l.Allow("a"))
	assert.True(t, l.Allow("b"), "buckets are per user")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("a"))

	now = now.Add(time.Hour)
	assert.Equal(t, 2, l.Prune())
}

func TestRateLimiter_Interceptor(t *testing.T) {
	l := NewRateLimiter(0, 1)
	interceptor := l.Interceptor()
	next := connect.UnaryFunc(func(context.Context, connect.AnyRequest) (connect.AnyResponse, error) {
		return connect.NewResponse(&struct{}{}), nil
	})

	ctx := WithUserID(context.Background(), "user-1")
	req := connect.NewRequest(&struct{}{})

	_, err := interceptor(next)(ctx, req)
	require.NoError(t, err)

	_, err = interceptor(next)(ctx, req)
	var connectErr *connect.Error
	require.True(t, errors.As(err, &connectErr))
	assert.Equal(t, connect.CodeResourceExhausted, connectErr.Code())

	// Anonymous calls are not limited here.
	_, err = interceptor(next)(context.Background(), req)
	assert.NoError(t, err)
}

