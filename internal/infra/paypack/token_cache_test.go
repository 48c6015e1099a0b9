package paypack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuthServer(t *testing.T, calls *int32, handler func(w http.ResponseWriter, n int32)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/auth/token", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var body tokenRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "cid", body.ClientID)
		assert.Equal(t, "secret", body.ClientSecret)

		n := atomic.AddInt32(calls, 1)
		handler(w, n)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func okToken(w http.ResponseWriter, n int32) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"access_token":"tok-%d","expires_in":3600}`, n)
}

func TestTokenCache_ReusesUntilExpiry(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, okToken)

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	tc := NewTokenCache(srv.URL, Credentials{ClientID: "cid", ClientSecret: "secret"}, zap.NewNop(),
		WithClock(clock), WithHTTPClient(srv.Client()))

	tok, err := tc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)

	expiry := start.Add(3600*time.Second - 300*time.Second)
	assert.Equal(t, expiry, tc.Expiry())

	clock.Set(expiry.Add(-time.Second))
	tok, err = tc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	clock.Set(expiry.Add(time.Second))
	tok, err = tc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestTokenCache_DefaultTTLWhenExpiresInMissing(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, func(w http.ResponseWriter, n int32) {
		fmt.Fprint(w, `{"token":"legacy"}`)
	})

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tc := NewTokenCache(srv.URL, Credentials{ClientID: "cid", ClientSecret: "secret"}, zap.NewNop(),
		WithClock(newFakeClock(start)), WithHTTPClient(srv.Client()))

	tok, err := tc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "legacy", tok)
	assert.Equal(t, start.Add(time.Hour-300*time.Second), tc.Expiry())
}

func TestTokenCache_Non2xxIsAuthError(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, func(w http.ResponseWriter, n int32) {
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message":"bad credentials"}`)
	})

	tc := NewTokenCache(srv.URL, Credentials{ClientID: "cid", ClientSecret: "secret"}, zap.NewNop(),
		WithHTTPClient(srv.Client()))

	_, err := tc.Token(context.Background())
	require.Error(t, err)

	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusForbidden, ae.Status)
	assert.Contains(t, ae.Body, "bad credentials")
	assert.True(t, tc.Expiry().IsZero())
}

func TestTokenCache_MissingTokenField(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, func(w http.ResponseWriter, n int32) {
		fmt.Fprint(w, `{"expires_in":3600}`)
	})

	tc := NewTokenCache(srv.URL, Credentials{ClientID: "cid", ClientSecret: "secret"}, zap.NewNop(),
		WithHTTPClient(srv.Client()))

	_, err := tc.Token(context.Background())
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusOK, ae.Status)
}

func TestTokenCache_FailureDropsStaleToken(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, func(w http.ResponseWriter, n int32) {
		if n == 1 {
			okToken(w, n)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	})

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	tc := NewTokenCache(srv.URL, Credentials{ClientID: "cid", ClientSecret: "secret"}, zap.NewNop(),
		WithClock(clock), WithHTTPClient(srv.Client()))

	_, err := tc.Token(context.Background())
	require.NoError(t, err)

	clock.Set(start.Add(2 * time.Hour))
	_, err = tc.Token(context.Background())
	require.Error(t, err)
	assert.True(t, tc.Expiry().IsZero())
}

func TestTokenCache_ConcurrentRefreshSharesOneCall(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := newAuthServer(t, &calls, func(w http.ResponseWriter, n int32) {
		<-release
		okToken(w, n)
	})

	tc := NewTokenCache(srv.URL, Credentials{ClientID: "cid", ClientSecret: "secret"}, zap.NewNop(),
		WithHTTPClient(srv.Client()))

	const callers = 8
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := tc.Token(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}

	// let every goroutine reach the refresh before the server answers
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, tok := range tokens {
		assert.Equal(t, "tok-1", tok)
	}
}

func TestTokenCache_Invalidate(t *testing.T) {
	var calls int32
	srv := newAuthServer(t, &calls, okToken)

	tc := NewTokenCache(srv.URL, Credentials{ClientID: "cid", ClientSecret: "secret"}, zap.NewNop(),
		WithHTTPClient(srv.Client()))

	_, err := tc.Token(context.Background())
	require.NoError(t, err)
	tc.Invalidate()

	tok, err := tc.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-2", tok)
}
