package server

import (
	"io"

	"gyma/internal/models"
	"gyma/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UpsertPerson handles POST /api/v1/person. It answers 201 when the profile
// was created and 200 when an existing one was edited.
func (s *Server) UpsertPerson(c *fiber.Ctx) error {
	var input service.PersonInput
	if err := parseBody(c, &input); err != nil {
		return respond(c, err)
	}
	person, created, err := s.svc.Persons.Upsert(c.UserContext(), callerID(c), input)
	if err != nil {
		return respond(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(person)
}

// GetMyProfile handles GET /api/v1/person/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	me, err := s.svc.Profiles.Me(c.UserContext(), callerID(c))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(me)
}

// UploadPicture handles POST /api/v1/person/picture with a multipart "file" field.
func (s *Server) UploadPicture(c *fiber.Ctx) error {
	header, err := c.FormFile("file")
	if err != nil {
		return respond(c, models.NewValidationError("No file provided"))
	}
	if header.Size > service.MaxPictureBytes {
		return respond(c, models.NewValidationError("Picture is too large"))
	}

	file, err := header.Open()
	if err != nil {
		return respond(c, models.NewInternalError(err))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(io.LimitReader(file, service.MaxPictureBytes+1))
	if err != nil {
		return respond(c, models.NewInternalError(err))
	}

	person, err := s.svc.Pictures.UploadProfilePicture(c.UserContext(), callerID(c), service.PictureInput{
		Filename:    header.Filename,
		ContentType: header.Header.Get(fiber.HeaderContentType),
		Content:     content,
	})
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(person)
}
