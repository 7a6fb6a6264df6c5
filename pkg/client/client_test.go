package client

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/calder-io/resilient-client/internal/testutil"
	"github.com/calder-io/resilient-client/pkg/session"
)

func newTestClient(t *testing.T, mock *testutil.MockAPI) *Client {
	t.Helper()

	c, err := New(DefaultConfig(mock.URL()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

func login(t *testing.T, c *Client) {
	t.Helper()

	_, err := c.Auth().Login(context.Background(), session.Credentials{
		Email:    "test@example.com",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
}

func TestClientRequiresBaseURLOrTransport(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("New() with empty config should fail")
	}
}

func TestGetServesSecondReadFromCache(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/items", testutil.NewJSONResponse(`{"items": []}`))

	c := newTestClient(t, mock)
	login(t, c)
	mock.Reset()

	first, err := c.Get(context.Background(), "/items", nil)
	if err != nil {
		t.Fatalf("first Get() error = %v", err)
	}
	second, err := c.Get(context.Background(), "/items", nil)
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("cached response = %s, want %s", second, first)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
}

func TestMutationInvalidatesCachedReads(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/items", testutil.NewJSONResponse(`{"items": []}`))

	c := newTestClient(t, mock)
	login(t, c)

	if _, err := c.Get(context.Background(), "/items", nil); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := c.Post(context.Background(), "/items", []byte(`{"name": "new"}`)); err != nil {
		t.Fatalf("Post() error = %v", err)
	}

	mock.Reset()
	if _, err := c.Get(context.Background(), "/items", nil); err != nil {
		t.Fatalf("Get() after mutation error = %v", err)
	}
	if got := mock.GetRequestCount(); got != 1 {
		t.Errorf("server saw %d requests after invalidation, want 1", got)
	}
}

func TestTransparentRefreshOn401(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	c := newTestClient(t, mock)
	login(t, c)

	// Invalidate the issued token server-side: the next request fails with
	// 401 and must succeed after one transparent refresh.
	mock.RevokeTokens()

	if _, err := c.Get(context.Background(), "/profile", nil); err != nil {
		t.Fatalf("Get() after revocation error = %v", err)
	}
	if got := mock.GetRefreshCount(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
	if !c.Auth().IsAuthenticated() {
		t.Error("client should still be authenticated after transparent refresh")
	}
}

func TestConcurrent401sShareOneRefresh(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	c := newTestClient(t, mock)
	login(t, c)
	mock.RevokeTokens()

	// Slow the refresh endpoint down so every retrying request observes
	// the same in-flight refresh.
	mock.SetRefreshDelay(150 * time.Millisecond)

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = c.Get(context.Background(), "/profile", nil)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("request %d error = %v", i, err)
		}
	}
	if got := mock.GetRefreshCount(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

func TestSecondUnauthorizedClearsSession(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	// The endpoint rejects even freshly refreshed tokens.
	mock.SetResponse("/protected", testutil.MockResponse{
		StatusCode: http.StatusUnauthorized,
		Body:       `{"error": "forbidden"}`,
	})

	c := newTestClient(t, mock)
	login(t, c)

	_, err := c.Get(context.Background(), "/protected", nil)
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Kind != AuthRefreshFailed {
		t.Fatalf("Get() error = %v, want AuthError kind %q", err, AuthRefreshFailed)
	}
	if got := mock.GetRefreshCount(); got != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", got)
	}
	if c.Auth().IsAuthenticated() {
		t.Error("session should be cleared after second 401")
	}
}

func TestUnauthenticated401SurfacesWithoutRefresh(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	c := newTestClient(t, mock)

	_, err := c.Get(context.Background(), "/profile", nil)
	var authErr *AuthError
	if !errors.As(err, &authErr) || authErr.Kind != AuthUnauthorized {
		t.Fatalf("Get() error = %v, want AuthError kind %q", err, AuthUnauthorized)
	}
	if got := mock.GetRefreshCount(); got != 0 {
		t.Errorf("refresh calls = %d, want 0", got)
	}
}

func TestServerErrorMapsToHTTPStatusError(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/broken", testutil.NewServerErrorResponse())

	c := newTestClient(t, mock)
	login(t, c)

	_, err := c.Get(context.Background(), "/broken", nil)
	var statusErr *HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Get() error = %v, want HTTPStatusError", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, http.StatusInternalServerError)
	}
	if len(statusErr.Body) == 0 {
		t.Error("error body should be carried verbatim")
	}
}

func TestUnreachableServerMapsToNetworkError(t *testing.T) {
	mock := testutil.NewMockAPI()
	url := mock.URL()
	mock.Close()

	c, err := New(DefaultConfig(url))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer c.Close()

	_, err = c.Get(context.Background(), "/items", nil)
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Get() error = %v, want NetworkError", err)
	}
}

func TestRequestTimeout(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/slow", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{}`,
		Delay:      500 * time.Millisecond,
	})

	c := newTestClient(t, mock)
	login(t, c)

	_, err := c.Request(context.Background(), http.MethodGet, "/slow", Options{
		Timeout: 50 * time.Millisecond,
	})
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("Request() error = %v, want ErrTimeout", err)
	}
}

func TestGetJSONDecodes(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()
	mock.SetResponse("/items/42", testutil.NewJSONResponse(`{"id": 42, "name": "widget"}`))

	c := newTestClient(t, mock)
	login(t, c)

	type item struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	}

	got, err := GetJSON[item](context.Background(), c, "/items/42")
	if err != nil {
		t.Fatalf("GetJSON() error = %v", err)
	}
	if got.ID != 42 || got.Name != "widget" {
		t.Errorf("GetJSON() = %+v, want {42 widget}", got)
	}
}

func TestDecodeFailureIsParseError(t *testing.T) {
	_, err := Decode[map[string]string]([]byte("not json"))
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Errorf("Decode() error = %v, want ParseError", err)
	}
}

func TestLogoutStopsAuthenticatedRequests(t *testing.T) {
	mock := testutil.NewMockAPI()
	defer mock.Close()

	c := newTestClient(t, mock)
	login(t, c)

	c.Auth().Logout(context.Background())
	if c.Auth().IsAuthenticated() {
		t.Error("IsAuthenticated() = true after logout")
	}
	if _, err := c.Auth().Token(); !errors.Is(err, session.ErrNotAuthenticated) {
		t.Errorf("Token() error = %v, want ErrNotAuthenticated", err)
	}
}
