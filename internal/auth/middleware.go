package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

const (
	principalKey = "auth_principal"
	// UserIDKey exposes the caller id to request logging.
	UserIDKey = "user_id"
)

// Principal represents the authenticated caller.
type Principal struct {
	Actor domain.Actor
}

// AuthMiddleware validates bearer tokens and stores the principal.
type AuthMiddleware struct {
	tokens *TokenManager
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{Actor: domain.Actor{UserID: claims.Subject, Role: claims.Role}}
	c.Locals(principalKey, principal)
	c.Locals(UserIDKey, claims.Subject)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ActorFromContext returns the caller as a domain actor.
func ActorFromContext(c *fiber.Ctx) (domain.Actor, error) {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Actor, nil
}
