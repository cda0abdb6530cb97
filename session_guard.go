package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// SessionGuard authenticates requests from the Authorization header and
// attaches the resolved user to the request
type SessionGuard struct {
	codec  *TokenCodec
	store  UserStore
	logger Logger
}

func NewSessionGuard(codec *TokenCodec, store UserStore) *SessionGuard {
	return &SessionGuard{
		codec:  codec,
		store:  store,
		logger: defLogger{},
	}
}

func (g *SessionGuard) WithLogger(logger Logger) *SessionGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// Protected builds the route middleware. An empty role set admits any
// authenticated subject, otherwise the user's role must be a member.
func (g *SessionGuard) Protected(roles ...UserRole) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := bearerToken(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": ErrAuthHeaderMissing.Message,
			})
		}

		claims, err := g.codec.VerifyAccess(token)
		if err != nil {
			message := ErrTokenMalformed.Message
			if goerrors.Is(err, ErrTokenExpired) {
				message = ErrTokenExpired.Message
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": message,
			})
		}

		user, err := g.store.GetByID(c.UserContext(), claims.UserID(), SelectWithoutPassword())
		if err != nil {
			if goerrors.IsNotFound(err) || repository.IsRecordNotFound(err) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"message": ErrIdentityNotFound.Message,
				})
			}

			g.logger.Error("session guard failed to load subject: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Authentication error",
			})
		}

		if !RoleAllowed(user.Role, roles) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": ErrRoleNotAllowed.Message,
			})
		}

		c.Locals(userLocalKey, user)
		ctx := WithContext(c.UserContext(), user)
		c.SetUserContext(WithClaimsContext(ctx, claims))

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) (string, error) {
	header := c.Get(fiber.HeaderAuthorization)
	if header == "" {
		return "", ErrAuthHeaderMissing
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", ErrAuthHeaderMissing
	}

	return parts[1], nil
}
