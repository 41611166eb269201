package web

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doAuth runs a request with a Bearer token. An empty token sends no
// Authorization header at all.
func doAuth(t *testing.T, app *fiber.App, method, path, token, body string) *http.Response {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, path, rd)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAuth_NoneModeAllowsRequests(t *testing.T) {
	app := testApp(t, "none", "")

	resp := doJSON(t, app, "GET", "/api/v1/projects", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_APIKeyValid(t *testing.T) {
	app := testApp(t, "api-key", "secret123")

	resp := doAuth(t, app, "GET", "/api/v1/projects", "secret123", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_APIKeyMissing(t *testing.T) {
	app := testApp(t, "api-key", "secret123")

	resp := doAuth(t, app, "GET", "/api/v1/projects", "", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var problem ProblemDetail
	decodeBody(t, resp, &problem)
	assert.Equal(t, "missing_auth", problem.Type)
}

func TestAuth_APIKeyInvalid(t *testing.T) {
	app := testApp(t, "api-key", "secret123")

	resp := doAuth(t, app, "GET", "/api/v1/projects", "wrong-key", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var problem ProblemDetail
	decodeBody(t, resp, &problem)
	assert.Equal(t, "invalid_api_key", problem.Type)
}

func TestAuth_APIKeyWrongScheme(t *testing.T) {
	app := testApp(t, "api-key", "secret123")

	req, err := http.NewRequest("GET", "/api/v1/projects", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic secret123")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var problem ProblemDetail
	decodeBody(t, resp, &problem)
	assert.Equal(t, "invalid_auth_scheme", problem.Type)
}

func TestAuth_ProbesSkipAuth(t *testing.T) {
	app := testApp(t, "api-key", "secret123")

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp := doJSON(t, app, "GET", path, "")
		assert.Equal(t, http.StatusOK, resp.StatusCode, "path %s", path)
	}
}

func TestAuth_JWTAdminToken(t *testing.T) {
	app := testApp(t, "jwt", "")

	token := signToken(t, "test-jwt-secret", jwt.MapClaims{
		"sub":  "tester",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	resp := doAuth(t, app, "GET", "/api/v1/projects", token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_JWTBadSignature(t *testing.T) {
	app := testApp(t, "jwt", "")

	token := signToken(t, "some-other-secret", jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	resp := doAuth(t, app, "GET", "/api/v1/projects", token, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var problem ProblemDetail
	decodeBody(t, resp, &problem)
	assert.Equal(t, "invalid_token", problem.Type)
}

func TestAuth_JWTExpiredToken(t *testing.T) {
	app := testApp(t, "jwt", "")

	token := signToken(t, "test-jwt-secret", jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})

	resp := doAuth(t, app, "GET", "/api/v1/projects", token, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuth_JWTRolelessTokenIsReadonly(t *testing.T) {
	app := testApp(t, "jwt", "")

	token := signToken(t, "test-jwt-secret", jwt.MapClaims{
		"sub": "tester",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	// Reads and creates are open to any authenticated caller.
	resp := doAuth(t, app, "POST", "/api/v1/projects", token, `{"name":"Readonly Project"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)

	// Deletion needs at least operator.
	resp = doAuth(t, app, "DELETE", "/api/v1/projects/"+created.ID, token, "")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var problem ProblemDetail
	decodeBody(t, resp, &problem)
	assert.Equal(t, "insufficient_role", problem.Type)
}

func TestAuth_JWTOperatorCanDelete(t *testing.T) {
	app := testApp(t, "jwt", "")

	token := signToken(t, "test-jwt-secret", jwt.MapClaims{
		"sub":  "tester",
		"role": "operator",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	resp := doAuth(t, app, "POST", "/api/v1/projects", token, `{"name":"Operator Project"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	decodeBody(t, resp, &created)

	resp = doAuth(t, app, "DELETE", "/api/v1/projects/"+created.ID, token, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
