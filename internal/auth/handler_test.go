package auth_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samrat-2024tm93628/user-service/internal/auth"
	"github.com/samrat-2024tm93628/user-service/internal/config"
	httpServer "github.com/samrat-2024tm93628/user-service/internal/http"
	"github.com/samrat-2024tm93628/user-service/internal/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	tokens, err := auth.NewPasetoService([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	require.NoError(t, err)

	logger := logging.NewLogger(true)
	svc := auth.NewService(newMemStore(), newMemCache(), auth.NewArgon2Hasher(fastArgon2), tokens, logger)

	cfg := &config.Config{}
	cfg.Server.Env = "test"

	return httpServer.NewRouter(cfg, auth.NewHandler(svc), auth.NewMiddleware(tokens), logger)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAnn(t *testing.T, router http.Handler) map[string]any {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/v1/users/register", auth.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@x.com",
		Phone:    "555-0001",
		Password: "pw123",
	}, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	return created
}

func TestRegisterEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/users/register", auth.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@x.com",
		Phone:    "555-0001",
		Password: "pw123",
	}, nil)

	require.Equal(t, http.StatusCreated, rec.Code)

	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created["id"])
	assert.NotEmpty(t, created["created_at"])
	assert.Equal(t, "ann@x.com", created["email"])

	// The response must carry neither the password nor any hash material.
	body := rec.Body.String()
	assert.NotContains(t, body, "pw123")
	assert.NotContains(t, body, "argon2")
	assert.NotContains(t, body, "password")
}

func TestRegisterEndpoint_DuplicateEmail(t *testing.T) {
	router := newTestRouter(t)
	registerAnn(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/users/register", auth.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@x.com",
		Phone:    "555-0002",
		Password: "other",
	}, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRegisterEndpoint_BadRequests(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/users/register", auth.RegisterRequest{Password: "pw123"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/users/register", auth.RegisterRequest{Email: "ann@x.com"}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/users/register", bytes.NewBufferString("{not json"))
	recRaw := httptest.NewRecorder()
	router.ServeHTTP(recRaw, req)
	assert.Equal(t, http.StatusBadRequest, recRaw.Code)
}

func TestLoginEndpoint(t *testing.T) {
	router := newTestRouter(t)
	registerAnn(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/users/login", auth.LoginRequest{
		Email:    "ann@x.com",
		Password: "pw123",
	}, nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Bearer", resp.TokenType)
}

func TestLoginEndpoint_FailuresIndistinguishable(t *testing.T) {
	router := newTestRouter(t)
	registerAnn(t, router)

	wrongPassword := doJSON(t, router, http.MethodPost, "/v1/users/login", auth.LoginRequest{
		Email:    "ann@x.com",
		Password: "wrongpw",
	}, nil)
	unknownEmail := doJSON(t, router, http.MethodPost, "/v1/users/login", auth.LoginRequest{
		Email:    "nobody@x.com",
		Password: "anything",
	}, nil)

	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
	assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String(),
		"responses must not reveal whether the email is registered")
}

func TestGetUserEndpoint(t *testing.T) {
	router := newTestRouter(t)
	created := registerAnn(t, router)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/users/%s", created["id"]), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var fetched map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created["id"], fetched["id"])
}

func TestGetUserEndpoint_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/users/%s", uuid.New()), nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetUserEndpoint_MalformedID(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/users/not-a-uuid", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListUsersEndpoint(t *testing.T) {
	router := newTestRouter(t)
	registerAnn(t, router)

	rec := doJSON(t, router, http.MethodGet, "/v1/users/", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp auth.UsersResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "ann@x.com", resp.Users[0].Email)
}

func TestMeEndpoint(t *testing.T) {
	router := newTestRouter(t)
	registerAnn(t, router)

	login := doJSON(t, router, http.MethodPost, "/v1/users/login", auth.LoginRequest{
		Email:    "ann@x.com",
		Password: "pw123",
	}, nil)
	require.Equal(t, http.StatusOK, login.Code)

	var tokens auth.LoginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &tokens))

	rec := doJSON(t, router, http.MethodGet, "/v1/users/me", nil, map[string]string{
		"Authorization": "Bearer " + tokens.Token,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var me map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "ann@x.com", me["email"])
}

func TestMeEndpoint_Unauthorized(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/users/me", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/users/me", nil, map[string]string{
		"Authorization": "Bearer not-a-token",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/v1/users/me", nil, map[string]string{
		"Authorization": "Basic whatever",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
