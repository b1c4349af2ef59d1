package api

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/mentor-tracker/internal/apperr"
)

func (s *Server) handleListGroup(c *fiber.Ctx) error {
	members, err := s.groups.ListGroupMembers(c.UserContext(), c.Params("mentorName"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(members)
}

func (s *Server) handleAddGroupPoints(c *fiber.Ctx) error {
	mentorName := c.Params("mentorName")

	raw := c.Query("points_added")
	if raw == "" {
		return badRequest(c, "points_added query parameter is required")
	}
	delta, err := strconv.Atoi(raw)
	if err != nil {
		return badRequest(c, "points_added must be an integer")
	}

	res, err := s.groups.AddPointsToGroup(c.UserContext(), mentorName, delta)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{
		"message":      fmt.Sprintf("Added %d points to %d members of %s's group", delta, res.UpdatedCount, mentorName),
		"updatedCount": res.UpdatedCount,
	})
}

func (s *Server) handleGroupActivity(c *fiber.Ctx) error {
	mentorName := c.Params("mentorName")

	feed, err := s.board.Activity(c.UserContext(), mentorName, c.QueryInt("limit", 20))
	if err != nil {
		return s.fail(c, apperr.Store("group.activity", err))
	}
	return c.JSON(feed)
}

func (s *Server) handleLeaderboard(c *fiber.Ctx) error {
	top, err := s.board.Top(c.UserContext(), c.QueryInt("limit", 10))
	if err != nil {
		return s.fail(c, apperr.Store("leaderboard.top", err))
	}
	return c.JSON(top)
}
