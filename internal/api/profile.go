package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/illegalcall/mentor-tracker/internal/models"
)

func (s *Server) handleGetProfile(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return badRequest(c, "email query parameter is required")
	}

	p, err := s.profiles.GetProfile(c.UserContext(), email)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(p)
}

func (s *Server) handleUpdateProfile(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return badRequest(c, "email query parameter is required")
	}

	var upd models.UpdateProfile
	if err := decodeStrict(c.Body(), &upd); err != nil {
		return badRequest(c, fmt.Sprintf("Invalid request body: %v", err))
	}

	p, err := s.profiles.UpdateProfile(c.UserContext(), email, upd)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(p)
}

func (s *Server) handleListByRole(c *fiber.Ctx) error {
	profiles, err := s.profiles.ListByRole(c.UserContext(), c.Params("accountType"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(profiles)
}

// handleUpdateProfileImage stores a base64 picture and points the profile
// at it.
func (s *Server) handleUpdateProfileImage(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return badRequest(c, "email query parameter is required")
	}

	var req models.ProfilePicUpdate
	if err := c.BodyParser(&req); err != nil || req.ProfilePic == "" {
		return badRequest(c, "profile_pic is required")
	}

	ctx := c.UserContext()
	owner, err := s.profiles.GetProfile(ctx, email)
	if err != nil {
		return s.fail(c, err)
	}

	img, err := s.images.UploadEncoded(ctx, owner.ID, req.ProfilePic)
	if err != nil {
		return s.fail(c, err)
	}

	p, err := s.profiles.SetProfilePicture(ctx, email, "/images/"+img.ID)
	if err != nil {
		if delErr := s.images.Delete(ctx, img.ID); delErr != nil {
			s.logger.Error("Failed to remove unused image", "id", img.ID, "error", delErr)
		}
		return s.fail(c, err)
	}
	return c.JSON(p)
}

// decodeStrict decodes a single JSON object and rejects keys that v does not
// declare.
func decodeStrict(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}
