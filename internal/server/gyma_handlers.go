package server

import (
	"gyma/internal/middleware"
	"gyma/internal/models"
	"gyma/internal/service"

	"github.com/gofiber/fiber/v2"
)

// StartGyma handles POST /api/v1/gyma/start
func (s *Server) StartGyma(c *fiber.Ctx) error {
	gyma, err := s.svc.Gymas.Start(c.UserContext(), middleware.Token(c))
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(gyma)
}

// EndGyma handles PUT /api/v1/gyma/end
func (s *Server) EndGyma(c *fiber.Ctx) error {
	gyma, err := s.svc.Gymas.End(c.UserContext(), middleware.Token(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(gyma)
}

// AddExercise handles POST /api/v1/gyma/exercise
func (s *Server) AddExercise(c *fiber.Ctx) error {
	var input service.ExerciseInput
	if err := parseBody(c, &input); err != nil {
		return respond(c, err)
	}
	exercise, err := s.svc.Gymas.AddExercise(c.UserContext(), middleware.Token(c), input)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(exercise)
}

// DeleteGyma handles DELETE /api/v1/gyma/:id
func (s *Server) DeleteGyma(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return respond(c, models.NewValidationError("Invalid gyma ID"))
	}
	if err := s.svc.Gymas.Delete(c.UserContext(), callerID(c), uint(id)); err != nil {
		return respond(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
