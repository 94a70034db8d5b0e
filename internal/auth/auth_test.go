package auth

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)
	token, expires, err := tm.GenerateToken("user-1", domain.RoleTechnician)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expires, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, domain.RoleTechnician, claims.Role)
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", "helpdesk", 5)

	other, _, err := NewTokenManager("other", "helpdesk", 5).GenerateToken("user-1", domain.RoleAdmin)
	require.NoError(t, err)
	_, err = tm.ParseToken(other)
	assert.Error(t, err, "wrong secret")

	wrongIssuer, _, err := NewTokenManager("secret", "elsewhere", 5).GenerateToken("user-1", domain.RoleAdmin)
	require.NoError(t, err)
	_, err = tm.ParseToken(wrongIssuer)
	assert.Error(t, err, "wrong issuer")

	badRole, _, err := tm.GenerateToken("user-1", domain.Role("ROOT"))
	require.NoError(t, err)
	_, err = tm.ParseToken(badRole)
	assert.Error(t, err, "unknown role")

	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			Issuer:    "helpdesk",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	signed, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = tm.ParseToken(signed)
	assert.Error(t, err, "expired")
}

func newTestApp(tm *TokenManager, roles ...domain.Role) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).SendString(domainErr.Code)
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/whoami", mw.Handle, RequireRole(roles...), func(c *fiber.Ctx) error {
		actor, err := ActorFromContext(c)
		if err != nil {
			return err
		}
		return c.SendString(actor.UserID + ":" + string(actor.Role))
	})
	return app
}

func TestMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", "", 5)
	userToken, _, err := tm.GenerateToken("user-1", domain.RoleCustomer)
	require.NoError(t, err)
	adminToken, _, err := tm.GenerateToken("admin-1", domain.RoleAdmin)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		roles  []domain.Role
		status int
		body   string
	}{
		{"missing header", "", nil, 401, apperrors.CodeUnauthorized},
		{"not bearer", "Basic abc", nil, 401, apperrors.CodeUnauthorized},
		{"garbage token", "Bearer abc", nil, 401, apperrors.CodeUnauthorized},
		{"any role", "Bearer " + userToken, nil, 200, "user-1:USR"},
		{"wrong role", "Bearer " + userToken, []domain.Role{domain.RoleAdmin}, 403, apperrors.CodeForbidden},
		{"admin", "Bearer " + adminToken, []domain.Role{domain.RoleAdmin}, 200, "admin-1:ADM"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tm, tt.roles...)
			req := httptest.NewRequest("GET", "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			assert.Equal(t, tt.body, string(body))
		})
	}
}
