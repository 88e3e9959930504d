package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/ticket-knowledge-service/pkg/util/errorutil"
)

const subjectKey = "auth_subject"

// ServiceTokenMiddleware enforces bearer service tokens on protected routes.
// When no secret is configured the middleware passes every request through,
// matching the open tool surface of deployments without auth.
func ServiceTokenMiddleware(tokens *TokenManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !tokens.Enabled() {
			return c.Next()
		}

		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return apperrors.NewUnauthorized("missing authorization header")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return apperrors.NewUnauthorized("invalid authorization header")
		}

		claims, err := tokens.ParseToken(parts[1])
		if err != nil {
			return apperrors.NewUnauthorized("invalid token")
		}

		c.Locals(subjectKey, claims.Subject)
		return c.Next()
	}
}

// SubjectFromContext retrieves the authenticated caller name, if any.
func SubjectFromContext(c *fiber.Ctx) (string, bool) {
	subject, ok := c.Locals(subjectKey).(string)
	return subject, ok && subject != ""
}
