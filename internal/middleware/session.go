package middleware

import (
	"context"
	"errors"

	"gyma/internal/models"
	"gyma/internal/session"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by the session middleware.
const (
	LocalUserID = "userID"
	LocalToken  = "token"
)

// SessionResolver resolves a client token to a live session.
type SessionResolver interface {
	Get(ctx context.Context, token string) (*session.Session, error)
}

// SessionRequired rejects the request with 401 unless the Authorization
// header carries a live session token.
func SessionRequired(sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := attachSession(c, sessions); err != nil {
			return models.Respond(c, err)
		}
		return c.Next()
	}
}

// OptionalSession attaches the caller when a valid token is present and lets
// anonymous requests through. A Redis failure still fails the request.
func OptionalSession(sessions SessionResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) == "" {
			return c.Next()
		}
		if err := attachSession(c, sessions); err != nil && !errors.Is(err, session.ErrInvalid) {
			return models.Respond(c, err)
		}
		return c.Next()
	}
}

func attachSession(c *fiber.Ctx, sessions SessionResolver) error {
	token := c.Get(fiber.HeaderAuthorization)
	sess, err := sessions.Get(c.UserContext(), token)
	if err != nil {
		return err
	}
	c.Locals(LocalUserID, sess.UserID)
	c.Locals(LocalToken, token)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, sess.UserID))
	return nil
}

// UserID returns the caller attached by the session middleware.
func UserID(c *fiber.Ctx) (uint, bool) {
	id, ok := c.Locals(LocalUserID).(uint)
	return id, ok
}

// Token returns the raw Authorization value of an authenticated request.
func Token(c *fiber.Ctx) string {
	token, _ := c.Locals(LocalToken).(string)
	return token
}
