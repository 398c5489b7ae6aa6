package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/coffee-shop/internal/domain/user"
	"github.com/xenking/coffee-shop/pkg/httpmiddleware"
)

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	env.users.session = &user.Session{
		User:  &user.User{ID: 5, Email: "bob@example.com", Username: "bob_1"},
		Token: "jwt",
	}

	code, resp := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "bob@example.com",
		"username": "  bob_1 ",
		"password": "secret1",
	}, false)
	require.Equal(t, http.StatusCreated, code)
	assert.True(t, resp.Success)
	assert.Equal(t, "User registered successfully", resp.Message)

	data := decodeData[sessionResponse](t, resp)
	assert.Equal(t, "jwt", data.Token)
	assert.Equal(t, int64(5), data.User.ID)
	assert.Equal(t, "bob_1", data.User.Username)
	assert.Equal(t, "bob_1", env.users.registered.Username, "username is trimmed before validation")
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
		"email":    "not-an-email",
		"username": "bad name!",
		"password": "123",
	}, false)
	require.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Validation failed", resp.Message)

	byField := map[string]string{}
	for _, e := range resp.Errors {
		byField[e.Field] = e.Message
	}
	assert.Equal(t, "Please provide a valid email address", byField["email"])
	assert.Equal(t, "Username can only contain letters, numbers, and underscores", byField["username"])
	assert.Equal(t, "Password must be at least 6 characters long", byField["password"])
	assert.Nil(t, env.users.registered)
}

func TestRegister_Conflicts(t *testing.T) {
	for _, tt := range []struct {
		err  error
		want string
	}{
		{user.ErrEmailTaken, "Email already registered"},
		{user.ErrUsernameTaken, "Username already taken"},
	} {
		env := newTestEnv(t)
		env.users.err = tt.err

		code, resp := env.do(t, http.MethodPost, "/api/auth/register", map[string]any{
			"email": "bob@example.com", "username": "bob", "password": "secret1",
		}, false)
		assert.Equal(t, http.StatusConflict, code)
		assert.Equal(t, tt.want, resp.Message)
	}
}

func TestRegister_MalformedJSON(t *testing.T) {
	env := newTestEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/auth/register", `{"email":`, false)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid JSON body", resp.Message)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)
	env.users.session = &user.Session{
		User:  &user.User{ID: 5, Email: "bob@example.com", Username: "bob"},
		Token: "jwt",
	}

	code, resp := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "bob@example.com", "password": "secret1",
	}, false)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Login successful", resp.Message)
	assert.Equal(t, "jwt", decodeData[sessionResponse](t, resp).Token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	env := newTestEnv(t)
	env.users.err = user.ErrInvalidCredentials

	code, resp := env.do(t, http.MethodPost, "/api/auth/login", map[string]any{
		"email": "bob@example.com", "password": "wrong",
	}, false)
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "Invalid email or password", resp.Message)
}

func TestAuthenticate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("Missing", func(t *testing.T) {
		code, resp := env.do(t, http.MethodGet, "/api/orders", nil, false)
		assert.Equal(t, http.StatusUnauthorized, code)
		assert.Equal(t, "Access denied. No token provided.", resp.Message)
	})
	t.Run("WrongScheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Basic abc")
		w := httptest.NewRecorder()
		env.server.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
	t.Run("Invalid", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
		req.Header.Set("Authorization", "Bearer forged")
		w := httptest.NewRecorder()
		env.server.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid or expired token")
	})
	t.Run("Valid", func(t *testing.T) {
		code, _ := env.do(t, http.MethodGet, "/api/orders", nil, true)
		assert.Equal(t, http.StatusOK, code)
	})
}

func TestAuthLimiter(t *testing.T) {
	env := newTestEnv(t)
	env.users.session = &user.Session{User: &user.User{ID: 1}, Token: "jwt"}
	limiter := httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
		Max:     2,
		Window:  15 * time.Minute,
		Message: "Too many authentication attempts, please try again later",
	})
	h := NewHandler(env.users, env.catalog, env.orders, env.favorites, env.reviews)
	env.server = h.Router(RouterConfig{AuthLimiter: limiter})

	body := map[string]any{"email": "bob@example.com", "password": "secret1"}
	for range 2 {
		code, _ := env.do(t, http.MethodPost, "/api/auth/login", body, false)
		require.Equal(t, http.StatusOK, code)
	}
	code, resp := env.do(t, http.MethodPost, "/api/auth/login", body, false)
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.Equal(t, "Too many authentication attempts, please try again later", resp.Message)

	// Other routes are not throttled by the auth limiter.
	code, _ = env.do(t, http.MethodGet, "/api/coffees", nil, false)
	assert.Equal(t, http.StatusOK, code)
}
