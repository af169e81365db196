package guauth

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	return newTestClientWithSession(t, handler, Session{})
}

func newTestClientWithSession(t *testing.T, handler http.Handler, persisted Session) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	store := NewMemorySessionStore()
	if persisted != (Session{}) {
		require.NoError(t, store.Save(context.Background(), persisted))
	}

	cfg := defaultConfig()
	cfg.API.BaseURL = srv.URL + "/"

	client, err := New().
		WithConfig(cfg).
		WithSessionStore(store).
		Build()
	require.NoError(t, err)
	t.Cleanup(client.Close)

	return client
}

func jsonHandler(status int, payload any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	})
}

func TestVerifyOTPSetsSession(t *testing.T) {
	client := newTestClient(t, jsonHandler(http.StatusOK, AuthResponse{
		Success: true,
		Token:   "tok-1",
		UserID:  "u1",
	}))
	changes := client.SessionChanges()

	resp, err := client.VerifyOTP(context.Background(), "+61400000000", "1234")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, Session{Token: "tok-1", UserID: "u1"}, client.Session())

	change := <-changes
	assert.False(t, change.Previous.Authenticated())
	assert.True(t, change.Current.Authenticated())
}

func TestVerifyOTPWithoutCredentialsLeavesSessionAlone(t *testing.T) {
	// The reset path verifies the OTP without issuing credentials.
	client := newTestClient(t, jsonHandler(http.StatusOK, AuthResponse{Success: true}))

	resp, err := client.VerifyOTP(context.Background(), "+61400000000", "1234")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.False(t, client.Session().Authenticated())
}

func TestLoginSendsPhoneForm(t *testing.T) {
	var captured struct {
		contentType string
		email       string
		password    string
		loginType   string
		path        string
	}
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.path = r.URL.Path
		captured.contentType = r.Header.Get("Content-Type")
		require.NoError(t, r.ParseForm())
		captured.email = r.PostFormValue("email")
		captured.password = r.PostFormValue("password")
		captured.loginType = r.PostFormValue("login_type")
		_ = json.NewEncoder(w).Encode(AuthResponse{Success: true, Token: "tok", UserID: "u1"})
	}))

	_, err := client.Login(context.Background(), "+61400000000", "Abc12345!")
	require.NoError(t, err)

	assert.Equal(t, "/api/user/signin", captured.path)
	assert.Equal(t, "application/x-www-form-urlencoded", captured.contentType)
	assert.Equal(t, "+61400000000", captured.email)
	assert.Equal(t, "Abc12345!", captured.password)
	assert.Equal(t, "Phone", captured.loginType)
}

func TestRegisterSendsISODateOfBirth(t *testing.T) {
	var body map[string]string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, &body))
		_ = json.NewEncoder(w).Encode(AuthResponse{Success: true, Token: "tok", UserID: "u1"})
	}))

	dob := time.Date(2000, time.January, 2, 0, 0, 0, 0, time.UTC)
	_, err := client.Register(context.Background(), "+61400000000", "kim", dob, "Abc12345!")
	require.NoError(t, err)

	assert.Equal(t, "2000-01-02T00:00:00.000Z", body["dateOfBirth"])
	assert.Equal(t, "kim", body["username"])
}

func TestUnauthorizedClearsSessionExactlyOnce(t *testing.T) {
	client := newTestClientWithSession(t,
		jsonHandler(http.StatusUnauthorized, map[string]string{"message": "token revoked"}),
		Session{Token: "stale", UserID: "u1"})
	changes := client.SessionChanges()

	require.True(t, client.Session().Authenticated())

	_, err := client.RequestOTP(context.Background(), "+61400000000")
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.False(t, client.Session().Authenticated())

	// Exactly one clear notification for the response.
	change := <-changes
	assert.True(t, change.Previous.Authenticated())
	assert.False(t, change.Current.Authenticated())
	select {
	case extra := <-changes:
		t.Fatalf("unexpected second session change: %+v", extra)
	default:
	}
	assert.Equal(t, uint64(1), client.MetricsSnapshot().Counters[MetricSessionCleared401])
}

func TestServerRejectionMapsToServerError(t *testing.T) {
	client := newTestClient(t, jsonHandler(http.StatusConflict, map[string]string{
		"message": "number already registered",
	}))

	_, err := client.RequestOTP(context.Background(), "+61400000000")
	var srv *ServerError
	require.ErrorAs(t, err, &srv)
	assert.Equal(t, http.StatusConflict, srv.Code)
	assert.Equal(t, "number already registered", srv.Message)
}

func TestEmptyAndMalformedBodies(t *testing.T) {
	empty := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	_, err := empty.RequestOTP(context.Background(), "+61400000000")
	assert.ErrorIs(t, err, ErrNoResponseBody)

	garbage := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>gateway error</html>"))
	}))
	_, err = garbage.RequestOTP(context.Background(), "+61400000000")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestAuthenticatedCallFailsFastWithoutToken(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(StatusResponse{Success: true})
	}))

	err := client.post(context.Background(), "api/user/profile", nil, "application/json", true, nil)
	assert.ErrorIs(t, err, ErrAuthenticationRequired)
	assert.Equal(t, int64(0), hits.Load(), "no network call without a token")
}

func TestBearerHeaderAttachedWhenAuthenticated(t *testing.T) {
	var auth string
	client := newTestClientWithSession(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewEncoder(w).Encode(StatusResponse{Success: true})
	}), Session{Token: "tok-99", UserID: "u1"})

	var out StatusResponse
	require.NoError(t, client.post(context.Background(), "api/user/profile", nil, "application/json", true, &out))
	assert.Equal(t, "Bearer tok-99", auth)
}

func TestRequestIDsAreUnique(t *testing.T) {
	ids := make(chan string, 2)
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get("X-Request-ID")
		_ = json.NewEncoder(w).Encode(StatusResponse{Success: true})
	}))

	ctx := context.Background()
	_, err := client.RequestOTP(ctx, "+61400000000")
	require.NoError(t, err)
	_, err = client.RequestOTP(ctx, "+61400000000")
	require.NoError(t, err)

	first, second := <-ids, <-ids
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestCheckUsernameCancellable(t *testing.T) {
	started := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Drain the body so the server arms client-disconnect detection;
		// with unread body bytes the request context is never cancelled.
		_, _ = io.Copy(io.Discard, r.Body)
		close(started)
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.CheckUsername(ctx, "kim")
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)
}

func TestBuildDiscardsExpiredPersistedToken(t *testing.T) {
	expired := signedToken(t, map[string]any{"exp": time.Now().Add(-time.Hour).Unix()})

	store := NewMemorySessionStore()
	require.NoError(t, store.Save(context.Background(), Session{Token: expired, UserID: "u1"}))

	client, err := New().WithSessionStore(store).Build()
	require.NoError(t, err)
	t.Cleanup(client.Close)

	assert.False(t, client.Session().Authenticated())
}

func TestBuilderSingleUse(t *testing.T) {
	b := New()
	_, err := b.Build()
	require.NoError(t, err)
	_, err = b.Build()
	assert.ErrorIs(t, err, ErrBuilderUsed)
}

func TestBuilderRejectsConflictingStores(t *testing.T) {
	_, rdb := newTestRedis(t)
	_, err := New().
		WithSessionStore(NewMemorySessionStore()).
		WithRedis(rdb).
		Build()
	assert.Error(t, err)
}

func TestBuilderWithRedisReloadsSession(t *testing.T) {
	_, rdb := newTestRedis(t)
	store := NewRedisSessionStore(rdb, defaultConfig().Session)
	require.NoError(t, store.Save(context.Background(), Session{Token: "tok", UserID: "u1"}))

	client, err := New().WithRedis(rdb).Build()
	require.NoError(t, err)
	t.Cleanup(client.Close)

	assert.Equal(t, Session{Token: "tok", UserID: "u1"}, client.Session())
}
