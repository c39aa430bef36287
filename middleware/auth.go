package middleware

import (
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/meinhoongagan/campus-booking/apperr"
	"github.com/meinhoongagan/campus-booking/identity"
	"github.com/meinhoongagan/campus-booking/models"
	"github.com/meinhoongagan/campus-booking/utils"
)

// SessionCookie carries the token for browser clients.
const SessionCookie = "session"

// Protected verifies the bearer token (or session cookie) and attaches the
// caller's Principal to the request.
func Protected(secret []byte, log *zap.Logger) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:  secret,
		Claims:      &identity.Claims{},
		TokenLookup: "header:Authorization,cookie:" + SessionCookie,
		AuthScheme:  "Bearer",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Debug("Rejected token", zap.String("path", c.Path()), zap.Error(err))
			return utils.SendError(c, apperr.ErrUnauthorized.With(err))
		},
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("user").(*jwt.Token)
			if !ok {
				return utils.SendError(c, apperr.ErrUnauthorized)
			}
			claims, ok := token.Claims.(*identity.Claims)
			if !ok {
				return utils.SendError(c, apperr.ErrUnauthorized)
			}
			p, err := claims.Principal()
			if err != nil {
				log.Debug("Invalid claims", zap.Error(err))
				return utils.SendError(c, apperr.ErrUnauthorized.With(err))
			}
			identity.Store(c, p)
			return c.Next()
		},
	})
}

// RequireRole refuses principals of any other role.
func RequireRole(role models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := identity.FromContext(c)
		if err != nil {
			return utils.SendError(c, err)
		}
		if p.Role != role {
			if role == models.RoleTeacher {
				return utils.SendError(c, apperr.ErrNotATeacher)
			}
			return utils.SendError(c, apperr.ErrNotAStudent)
		}
		return c.Next()
	}
}
