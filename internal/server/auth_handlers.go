package server

import (
	"gyma/internal/middleware"
	"gyma/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Register handles POST /api/v1/user
func (s *Server) Register(c *fiber.Ctx) error {
	var input service.RegisterInput
	if err := parseBody(c, &input); err != nil {
		return respond(c, err)
	}
	user, err := s.svc.Auth.Register(c.UserContext(), input)
	if err != nil {
		return respond(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User created, please verify your email",
		"email":   user.Email,
	})
}

// Login handles POST /api/v1/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var input service.LoginInput
	if err := parseBody(c, &input); err != nil {
		return respond(c, err)
	}
	res, err := s.svc.Auth.Login(c.UserContext(), input)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// Logout handles POST /api/v1/auth/logout
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.svc.Auth.Logout(c.UserContext(), middleware.Token(c)); err != nil {
		return respond(c, err)
	}
	return message(c, fiber.StatusOK, "Logged out")
}

// Verify handles GET /api/v1/auth/verify/:code
func (s *Server) Verify(c *fiber.Ctx) error {
	if _, err := s.svc.Auth.Verify(c.UserContext(), c.Params("code")); err != nil {
		return respond(c, err)
	}
	return message(c, fiber.StatusOK, "Email verified successfully")
}

// ResendVerification handles POST /api/v1/auth/resend_verification_mail
func (s *Server) ResendVerification(c *fiber.Ctx) error {
	var input struct {
		Email string `json:"email"`
	}
	if err := parseBody(c, &input); err != nil {
		return respond(c, err)
	}
	if err := s.svc.Auth.ResendVerification(c.UserContext(), input.Email); err != nil {
		return respond(c, err)
	}
	return message(c, fiber.StatusOK, "Verification email sent")
}
