package server

import (
	"gyma/internal/middleware"
	"gyma/internal/models"
	"gyma/internal/service"

	"github.com/gofiber/fiber/v2"
)

// exclusionHeader carries the ids of gymas the client already holds.
const exclusionHeader = "Gymakeys"

func respond(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, models.HTTPStatus(err), err)
}

// callerID is only called behind SessionRequired.
func callerID(c *fiber.Ctx) uint {
	id, _ := middleware.UserID(c)
	return id
}

func viewerID(c *fiber.Ctx) *uint {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	return nil
}

func exclusions(c *fiber.Ctx) ([]uint, error) {
	return service.ParseExclusions(c.Get(exclusionHeader))
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

func message(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"message": msg})
}
