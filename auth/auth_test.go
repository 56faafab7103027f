package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisRevoker(t *testing.T) (*RedisRevoker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisRevoker(client), mr
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := UserIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte{byte('0' + uid)})
	})
}

func TestIssueAndParse(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	token, claims, err := iss.Issue(7)
	require.NoError(t, err)
	require.NotEmpty(t, claims.ID)

	parsed, err := iss.Parse(token)
	require.NoError(t, err)
	uid, err := parsed.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(7), uid)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestParseRejects(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	token, _, err := iss.Issue(1)
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewIssuer("other", time.Hour).Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("expired", func(t *testing.T) {
		late := NewIssuer("secret", time.Hour)
		late.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := late.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
	t.Run("garbage", func(t *testing.T) {
		_, err := iss.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestMiddlewareAndRequireAuth(t *testing.T) {
	iss := NewIssuer("secret", time.Hour)
	rev, _ := newRedisRevoker(t)
	h := Middleware(iss, rev)(RequireAuth(echoUser()))
	token, claims, err := iss.Issue(3)
	require.NoError(t, err)

	t.Run("no token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
	})

	t.Run("bearer", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "3", rec.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("revoked", func(t *testing.T) {
		require.NoError(t, rev.Revoke(context.Background(), claims.ID, claims.ExpiresAt.Time))
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireAuthVerifier(t *testing.T) {
	SetUserVerifier(func(_ context.Context, uid uint) bool { return uid == 1 })
	t.Cleanup(func() { SetUserVerifier(nil) })

	h := RequireAuth(echoUser())
	for uid, want := range map[uint]int{1: http.StatusOK, 2: http.StatusUnauthorized} {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r = r.WithContext(WithUserID(r.Context(), uid))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, r)
		assert.Equal(t, want, rec.Code)
	}
}

func TestRedisRevokerExpiry(t *testing.T) {
	rev, mr := newRedisRevoker(t)
	ctx := context.Background()

	require.NoError(t, rev.Revoke(ctx, "jti-1", time.Now().Add(time.Minute)))
	revoked, err := rev.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Minute)
	revoked, err = rev.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, rev.Revoke(ctx, "old", time.Now().Add(-time.Second)))
	assert.False(t, mr.Exists(revokedKeyPrefix+"old"))
}

func TestRedisRevokerDown(t *testing.T) {
	rev, mr := newRedisRevoker(t)
	mr.SetError("LOADING")
	_, err := rev.IsRevoked(context.Background(), "x")
	assert.Error(t, err)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "bearer abc")
	assert.Equal(t, "abc", TokenFromRequest(r))

	r.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, TokenFromRequest(r))
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestSessionCookies(t *testing.T) {
	rec := httptest.NewRecorder()
	SetSession(rec, "tok", time.Now().Add(time.Hour), true)
	ClearSession(rec)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 2)
	assert.Equal(t, "tok", cookies[0].Value)
	assert.True(t, cookies[0].Secure)
	assert.Equal(t, -1, cookies[1].MaxAge)
}
