package api

import (
	"io"

	"github.com/gofiber/fiber/v2"
)

func (s *Server) handleUploadImage(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest(c, "file is required")
	}

	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "Failed to read file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return badRequest(c, "Failed to read file")
	}

	img, err := s.images.Upload(c.UserContext(), c.Query("user_id"), fh.Filename, fh.Header.Get("Content-Type"), data)
	if err != nil {
		return s.fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(img)
}

func (s *Server) handleGetImage(c *fiber.Ctx) error {
	img, data, err := s.images.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	c.Set(fiber.HeaderContentType, img.ContentType)
	return c.Send(data)
}

func (s *Server) handleListUserImages(c *fiber.Ctx) error {
	list, err := s.images.ListByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(list)
}

func (s *Server) handleDeleteImage(c *fiber.Ctx) error {
	if err := s.images.Delete(c.UserContext(), c.Params("id")); err != nil {
		return s.fail(c, err)
	}
	return c.JSON(fiber.Map{"message": "Image deleted"})
}
