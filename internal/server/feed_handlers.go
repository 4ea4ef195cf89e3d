package server

import (
	"gyma/internal/models"

	"github.com/gofiber/fiber/v2"
)

func feed(c *fiber.Ctx, entries []models.FeedEntry, err error) error {
	if err != nil {
		return respond(c, err)
	}
	if entries == nil {
		entries = []models.FeedEntry{}
	}
	return c.JSON(entries)
}

// GetMineFeed handles GET /api/v1/mine
func (s *Server) GetMineFeed(c *fiber.Ctx) error {
	exclude, err := exclusions(c)
	if err != nil {
		return respond(c, err)
	}
	entries, err := s.svc.Feeds.Mine(c.UserContext(), callerID(c), exclude)
	return feed(c, entries, err)
}

// GetGymbroFeed handles GET /api/v1/gymbro
func (s *Server) GetGymbroFeed(c *fiber.Ctx) error {
	exclude, err := exclusions(c)
	if err != nil {
		return respond(c, err)
	}
	entries, err := s.svc.Feeds.Gymbros(c.UserContext(), callerID(c), exclude)
	return feed(c, entries, err)
}

// GetPublicFeed handles GET /api/v1/pub
func (s *Server) GetPublicFeed(c *fiber.Ctx) error {
	exclude, err := exclusions(c)
	if err != nil {
		return respond(c, err)
	}
	entries, err := s.svc.Feeds.Public(c.UserContext(), viewerID(c), exclude)
	return feed(c, entries, err)
}

// GetAnonymousFeed handles GET /api/v1/pub/anonymous
func (s *Server) GetAnonymousFeed(c *fiber.Ctx) error {
	exclude, err := exclusions(c)
	if err != nil {
		return respond(c, err)
	}
	entries, err := s.svc.Feeds.PublicAnonymous(c.UserContext(), exclude)
	return feed(c, entries, err)
}

// GetProfileFeed handles GET /api/v1/profile/:slug/gyma
func (s *Server) GetProfileFeed(c *fiber.Ctx) error {
	exclude, err := exclusions(c)
	if err != nil {
		return respond(c, err)
	}
	entries, err := s.svc.Feeds.Profile(c.UserContext(), viewerID(c), c.Params("slug"), exclude)
	return feed(c, entries, err)
}
