package api

import (
	"github.com/gofiber/fiber/v2"
	jwtv4 "github.com/golang-jwt/jwt/v4"

	"github.com/illegalcall/mentor-tracker/internal/apperr"
	"github.com/illegalcall/mentor-tracker/internal/models"
)

func (s *Server) handleSignup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	p, err := s.auth.Signup(c.UserContext(), req)
	if err != nil {
		return s.fail(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(models.MessageResponse{
		Message: "User created successfully",
		ID:      p.ID,
	})
}

func (s *Server) handleLogin(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	resp, err := s.auth.Login(c.UserContext(), req)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(resp)
}

// requireProfileOwner lets a request through only when the token's email
// claim names the profile in ?email=. It runs after jwtware, which stores
// the parsed token under "user".
func (s *Server) requireProfileOwner(c *fiber.Ctx) error {
	const op = "auth.profile_owner"

	target := models.NormalizeEmail(c.Query("email"))
	if target == "" {
		return c.Next()
	}

	token, ok := c.Locals("user").(*jwtv4.Token)
	if !ok {
		return s.fail(c, apperr.Unauthorized(op, "Invalid or expired token"))
	}
	claims, _ := token.Claims.(jwtv4.MapClaims)
	email, _ := claims["email"].(string)
	if models.NormalizeEmail(email) != target {
		return s.fail(c, apperr.Forbidden(op, "You can only modify your own profile"))
	}
	return c.Next()
}
