package misc

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/taigahorikawa-droid/body-track/internal/auth"
	"github.com/taigahorikawa-droid/body-track/internal/middleware"
	"github.com/taigahorikawa-droid/body-track/internal/telemetry/metrics"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/go-redis/redismock/v8"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// use TestMain(m *testing.M) { ... } for
// global set-up/tear-down for all the tests in a package
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// INFO: https://github.com/go-redis/redis/issues/1029
		goleak.IgnoreTopFunction(
			"github.com/go-redis/redis/v8/internal/pool.(*ConnPool).reaper",
		),
	)
}

type testRequestRateLimiter struct {
	// key to limit map
	Limits map[string]int
}

func (l *testRequestRateLimiter) Allow(_ context.Context, key string, _ redis_rate.Limit) (*redis_rate.Result, error) {
	res := &redis_rate.Result{}

	foundLimit, ok := l.Limits[key]
	if !ok || foundLimit == 0 {
		return res, nil
	}

	res.Allowed = l.Limits[key]
	l.Limits[key]--

	return res, nil
}

func setupRouterForTests(
	t *testing.T,
	authService *auth.Service,
	redisClient *redis.Client,
	reqRateLimiter *testRequestRateLimiter,
) *mux.Router {
	t.Helper()

	r := mux.NewRouter()
	authMiddleware := middleware.NewAuthMiddlewareHandler(
		auth.NewLoginChecker(time.Hour, redisClient),
	)

	metricsManager := metrics.NewTestManager()

	// the same setup as in Server.routerSetup() ... these are not so much of a "unit" tests
	r.Use(middleware.PanicRecovery(metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(metricsManager))
	r.Use(middleware.Cors())
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	handler := NewHandler("dummy", authService)
	handler.SetupRoutes(r, reqRateLimiter, metricsManager)

	return r
}

func TestNewMiscHandler(t *testing.T) {
	mainRouter := mux.NewRouter()
	handler := NewHandler("dummy", &auth.Service{})
	handler.SetupRoutes(mainRouter, nil, metrics.NewTestManager())
	require.NotNil(t, handler)
	require.NotNil(t, mainRouter)

	for caseName, route := range map[string]struct {
		name   string
		path   string
		method string
	}{
		"route-get": {
			name:   "root",
			path:   "/",
			method: "GET",
		},
		"route-post": {
			name:   "root",
			path:   "/",
			method: "POST",
		},
		"route-options": {
			name:   "root",
			path:   "/",
			method: "OPTIONS",
		},
		"version": {
			name:   "version",
			path:   "/version",
			method: "GET",
		},
		"login": {
			name:   "login",
			path:   "/a/login",
			method: "POST",
		},
		"logout": {
			name:   "logout",
			path:   "/a/logout",
			method: "GET",
		},
		"logout-options": {
			name:   "logout",
			path:   "/a/logout",
			method: "OPTIONS",
		},
	} {
		t.Run(caseName, func(t *testing.T) {
			req, err := http.NewRequest(route.method, route.path, nil)
			require.NoError(t, err)

			routeMatch := &mux.RouteMatch{}
			route := mainRouter.Get(route.name)
			require.NotNil(t, route)
			isMatch := route.Match(req, routeMatch)
			assert.True(t, isMatch, caseName)
		})
	}
}

func newLoginTestService(t *testing.T) (*auth.Service, redismock.ClientMock) {
	t.Helper()

	rdb, mock := redismock.NewClientMock()
	authService := auth.NewAuthService(&auth.Admin{
		Username:     "testuser",
		PasswordHash: "$2a$14$6Gmhg85si2etd3K9oB8nYu1cxfbrdmhkg6wI6OXsa88IF4L2r/L9i", // testpass
	}, time.Hour, rdb)
	authService.RandStringFunc = func(_ int) (string, error) {
		return "test_token", nil
	}

	return authService, mock
}

func loginRequest(username, password string) *http.Request {
	req := httptest.NewRequest("POST", "/a/login", nil)
	req.PostForm = url.Values{}
	req.PostForm.Add("username", username)
	req.PostForm.Add("password", password)
	req.Header.Set("Origin", "test")
	return req
}

func TestLogin(t *testing.T) {
	authService, mock := newLoginTestService(t)
	reqRateLimiter := &testRequestRateLimiter{
		Limits: map[string]int{"login": 2},
	}
	r := setupRouterForTests(t, authService, nil, reqRateLimiter)

	mock.Regexp().ExpectSet(`bodytrack-session\|\|test_token`, `\d+`, 0).SetVal("OK")
	mock.Regexp().ExpectSAdd("bodytrack-sessions", "test_token").SetVal(1)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, loginRequest("testuser", "testpass"))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"token": "test_token"}`, rr.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())

	// wrong password, no session is created
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loginRequest("testuser", "letmein"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "wrong credentials")
}

func TestLogin_RateLimited(t *testing.T) {
	authService, mock := newLoginTestService(t)
	reqRateLimiter := &testRequestRateLimiter{
		Limits: map[string]int{"login": 1},
	}
	r := setupRouterForTests(t, authService, nil, reqRateLimiter)

	mock.Regexp().ExpectSet(`bodytrack-session\|\|test_token`, `\d+`, 0).SetVal("OK")
	mock.Regexp().ExpectSAdd("bodytrack-sessions", "test_token").SetVal(1)

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, loginRequest("testuser", "testpass"))
	assert.Equal(t, http.StatusOK, rr.Code)

	// next time fails
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, loginRequest("testuser", "testpass"))
	assert.Equal(t, http.StatusTooEarly, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Body.String(), "retry after"))
}

func TestLogout(t *testing.T) {
	authService, mock := newLoginTestService(t)
	reqRateLimiter := &testRequestRateLimiter{
		Limits: map[string]int{"login": 5},
	}
	r := setupRouterForTests(t, authService, nil, reqRateLimiter)

	sessionKey := fmt.Sprintf("bodytrack-session||%s", "test_token")
	mock.ExpectGet(sessionKey).SetVal("1743500000")
	mock.ExpectSet(sessionKey, 0, 0).SetVal("OK")
	mock.ExpectSRem("bodytrack-sessions", "test_token").SetVal(1)

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/a/logout", nil)
	req.Header.Set("Origin", "test")
	req.Header.Set(middleware.AuthTokenHeader, "test_token")
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "logged-out", rr.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())

	// no token, no logout
	rr = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/a/logout", nil)
	req.Header.Set("Origin", "test")
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
