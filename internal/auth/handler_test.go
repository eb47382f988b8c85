package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moviehub/theater-api/internal/logging"
	"github.com/moviehub/theater-api/internal/ratelimit"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

type handlerFixture struct {
	*serviceFixture
	handler *Handler
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := newServiceFixture(t)
	h := NewHandler(f.service, ratelimit.NewLimiter(client), logging.NewLogger(true))

	return &handlerFixture{serviceFixture: f, handler: h}
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler(rec, req)
	return rec
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func TestRegisterHandler(t *testing.T) {
	f := newHandlerFixture(t)

	rec := postJSON(t, f.handler.Register, "/accounts/register/", RegisterRequest{
		Email:    "alice@example.com",
		Password: validPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	waitForEmail(t, f.emails, "activation")

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "alice@example.com", resp.Email)
	assert.NotEmpty(t, resp.ID)

	// duplicate email
	rec = postJSON(t, f.handler.Register, "/accounts/register/", RegisterRequest{
		Email:    "alice@example.com",
		Password: validPassword,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A user with this email already exists.", decodeDetail(t, rec))

	// policy violation carries its own message
	rec = postJSON(t, f.handler.Register, "/accounts/register/", RegisterRequest{
		Email:    "bob@example.com",
		Password: "weakpass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeDetail(t, rec), "uppercase")

	// malformed body
	req := httptest.NewRequest(http.MethodPost, "/accounts/register/", bytes.NewReader([]byte("{")))
	rec = httptest.NewRecorder()
	f.handler.Register(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRegisterHandlerRateLimit(t *testing.T) {
	f := newHandlerFixture(t)

	var last int
	for i := 0; i < 12; i++ {
		rec := postJSON(t, f.handler.Register, "/accounts/register/", RegisterRequest{
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: validPassword,
		})
		last = rec.Code
		if rec.Code == http.StatusCreated {
			waitForEmail(t, f.emails, "activation")
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestLoginHandler(t *testing.T) {
	f := newHandlerFixture(t)
	u := f.registerActive(t, "alice@example.com")

	rec := postJSON(t, f.handler.Login, "/accounts/login/", LoginRequest{
		Email:    u.Email,
		Password: validPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var pair TokenPair
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pair))
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, "bearer", pair.TokenType)

	// bad credentials
	rec = postJSON(t, f.handler.Login, "/accounts/login/", LoginRequest{
		Email:    u.Email,
		Password: "Wr0ng!Pass",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid email or password.", decodeDetail(t, rec))
}

func TestLoginHandlerInactive(t *testing.T) {
	f := newHandlerFixture(t)

	rec := postJSON(t, f.handler.Register, "/accounts/register/", RegisterRequest{
		Email:    "alice@example.com",
		Password: validPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	waitForEmail(t, f.emails, "activation")

	rec = postJSON(t, f.handler.Login, "/accounts/login/", LoginRequest{
		Email:    "alice@example.com",
		Password: validPassword,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "User account is not activated.", decodeDetail(t, rec))
}

func TestActivateHandler(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	rec := postJSON(t, f.handler.Register, "/accounts/register/", RegisterRequest{
		Email:    "alice@example.com",
		Password: validPassword,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	waitForEmail(t, f.emails, "activation")

	var resp UserResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	tok := f.users.createdActivations[resp.ID]
	require.NoError(t, f.tokens.ReplaceActivationToken(ctx, resp.ID, tok, time.Now().Add(time.Hour)))

	rec = postJSON(t, f.handler.Activate, "/accounts/activate/", ActivateRequest{
		Email: "alice@example.com",
		Token: tok,
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	waitForEmail(t, f.emails, "activation_complete")

	// repeat activation
	rec = postJSON(t, f.handler.Activate, "/accounts/activate/", ActivateRequest{
		Email: "alice@example.com",
		Token: tok,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "User account is already active.", decodeDetail(t, rec))

	// bad token for an inactive user
	rec = postJSON(t, f.handler.Activate, "/accounts/activate/", ActivateRequest{
		Email: "nobody@example.com",
		Token: "bad",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid or expired activation token.", decodeDetail(t, rec))
}

func TestRefreshHandler(t *testing.T) {
	f := newHandlerFixture(t)
	u := f.registerActive(t, "alice@example.com")

	pair, err := f.service.Login(context.Background(), u.Email, validPassword)
	require.NoError(t, err)

	rec := postJSON(t, f.handler.Refresh, "/accounts/refresh/", RefreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AccessTokenResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.AccessToken)

	// garbage token decodes to 400
	rec = postJSON(t, f.handler.Refresh, "/accounts/refresh/", RefreshRequest{
		RefreshToken: "garbage",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// revoked session yields 401
	require.NoError(t, f.service.Logout(context.Background(), pair.RefreshToken))
	rec = postJSON(t, f.handler.Refresh, "/accounts/refresh/", RefreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Refresh token not found.", decodeDetail(t, rec))

	// missing token
	rec = postJSON(t, f.handler.Refresh, "/accounts/refresh/", RefreshRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogoutHandler(t *testing.T) {
	f := newHandlerFixture(t)
	u := f.registerActive(t, "alice@example.com")

	pair, err := f.service.Login(context.Background(), u.Email, validPassword)
	require.NoError(t, err)

	rec := postJSON(t, f.handler.Logout, "/accounts/logout/", RefreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// idempotent
	rec = postJSON(t, f.handler.Logout, "/accounts/logout/", RefreshRequest{
		RefreshToken: pair.RefreshToken,
	})
	assert.Equal(t, http.StatusOK, rec.Code)

	// undecodable token
	rec = postJSON(t, f.handler.Logout, "/accounts/logout/", RefreshRequest{
		RefreshToken: "garbage",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResendActivationHandlerGenericResponse(t *testing.T) {
	f := newHandlerFixture(t)

	// unknown email still gets a 200 with the generic message
	rec := postJSON(t, f.handler.ResendActivation, "/accounts/activate/resend/", EmailRequest{
		Email: "nobody@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "If your email is registered")

	// immediate second request hits the email cooldown
	rec = postJSON(t, f.handler.ResendActivation, "/accounts/activate/resend/", EmailRequest{
		Email: "nobody@example.com",
	})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestRequestPasswordResetHandlerGenericResponse(t *testing.T) {
	f := newHandlerFixture(t)

	rec := postJSON(t, f.handler.RequestPasswordReset, "/accounts/password-reset/request/", EmailRequest{
		Email: "nobody@example.com",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "If an account exists")
}

func TestChangePasswordHandler(t *testing.T) {
	f := newHandlerFixture(t)
	u := f.registerActive(t, "alice@example.com")

	do := func(body ChangePasswordRequest) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/accounts/change-password/", bytes.NewReader(raw))
		req = req.WithContext(context.WithValue(req.Context(), UserContextKey, u))
		rec := httptest.NewRecorder()
		f.handler.ChangePassword(rec, req)
		return rec
	}

	rec := do(ChangePasswordRequest{OldPassword: "Wr0ng!Pass", NewPassword: "N3w!Password"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Old password is incorrect.", decodeDetail(t, rec))

	rec = do(ChangePasswordRequest{OldPassword: validPassword, NewPassword: "N3w!Password"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestChangeGroupHandlerUnknownGroup(t *testing.T) {
	f := newHandlerFixture(t)
	u := f.registerActive(t, "alice@example.com")

	raw, err := json.Marshal(ChangeGroupRequest{Group: "superuser"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/accounts/admin/users/"+u.ID.String()+"/change-group/", bytes.NewReader(raw))
	req = withURLParam(req, "userID", u.ID.String())
	rec := httptest.NewRecorder()

	f.handler.ChangeGroup(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Unknown group.", decodeDetail(t, rec))
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	assert.Equal(t, "10.0.0.1", getClientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.3, 10.0.0.4")
	assert.Equal(t, "10.0.0.3", getClientIP(req))
}
