package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/taigahorikawa-droid/body-track/internal/middleware"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

func TestAuthMiddlewareHandler_AuthCheck(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockLoginChecker := NewMockloginChecker(ctrl)
	authMiddleware := middleware.NewAuthMiddlewareHandler(mockLoginChecker)

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		expectedStatusCode int
		mockIsLogged       bool
		mockIsLoggedErr    error
	}{
		{
			name:               "RootWithoutToken",
			path:               "/",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "VersionWithoutToken",
			path:               "/version",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "LoginWithoutToken",
			path:               "/a/login",
			method:             "POST",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "ProtectedPathWithoutToken",
			path:               "/plan/settings",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ProtectedPathValidToken",
			path:               "/entries",
			method:             "GET",
			token:              "valid-token",
			expectedStatusCode: http.StatusOK,
			mockIsLogged:       true,
		},
		{
			name:               "ProtectedPathInvalidToken",
			path:               "/entries",
			method:             "GET",
			token:              "invalid-token",
			expectedStatusCode: http.StatusUnauthorized,
			mockIsLogged:       false,
		},
		{
			name:               "OptionsPreflight",
			path:               "/entries",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(tc.method, tc.path, nil)
			assert.NoError(t, err)
			if tc.token != "" {
				req.Header.Add(middleware.AuthTokenHeader, tc.token)
				mockLoginChecker.EXPECT().
					IsLogged(gomock.Any(), tc.token).
					Return(tc.mockIsLogged, tc.mockIsLoggedErr).AnyTimes()
			}

			rr := httptest.NewRecorder()
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
			authMiddleware.AuthCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
		})
	}
}
