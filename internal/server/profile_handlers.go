package server

import (
	"context"
	"strings"

	"gyma/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/v1/profile/:slug
func (s *Server) GetProfile(c *fiber.Ctx) error {
	profile, err := s.svc.Profiles.View(c.UserContext(), viewerID(c), c.Params("slug"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(profile)
}

// Search handles GET /api/v1/search?q=
func (s *Server) Search(c *fiber.Ctx) error {
	results, err := s.svc.Profiles.Search(c.UserContext(), viewerID(c), strings.TrimSpace(c.Query("q")))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(results)
}

type friendshipOp func(ctx context.Context, callerID uint, slug string) (*service.FriendshipResult, error)

func (s *Server) runFriendshipOp(c *fiber.Ctx, op friendshipOp) error {
	res, err := op(c.UserContext(), callerID(c), c.Params("slug"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}

// RequestFriendship handles /api/v1/profile/request/:slug
func (s *Server) RequestFriendship(c *fiber.Ctx) error {
	return s.runFriendshipOp(c, s.svc.Friendships.Request)
}

// AcceptFriendship handles /api/v1/profile/accept/:slug
func (s *Server) AcceptFriendship(c *fiber.Ctx) error {
	return s.runFriendshipOp(c, s.svc.Friendships.Accept)
}

// BlockPerson handles /api/v1/profile/block/:slug
func (s *Server) BlockPerson(c *fiber.Ctx) error {
	return s.runFriendshipOp(c, s.svc.Friendships.Block)
}

// UnblockPerson handles /api/v1/profile/unblock/:slug
func (s *Server) UnblockPerson(c *fiber.Ctx) error {
	return s.runFriendshipOp(c, s.svc.Friendships.Unblock)
}

// RemoveFriendship handles /api/v1/profile/disconnect/:slug
func (s *Server) RemoveFriendship(c *fiber.Ctx) error {
	return s.runFriendshipOp(c, s.svc.Friendships.Remove)
}
