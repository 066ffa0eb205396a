package api

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/campushub/chat-service/internal/storage"
)

var allowedUploadTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"audio/mpeg": true,
	"audio/mp4":  true,
	"audio/ogg":  true,
	"audio/wav":  true,
	"audio/webm": true,
	"video/webm": true, // browser voice notes
}

// POST /chat/upload reads the multipart "file" field, capped at the
// configured size, and returns the URL to reference as attachmentUrl on a
// later message.
func (s *Server) upload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "no file uploaded")
	}
	if fileHeader.Size > s.cfg.Upload.MaxBytes() {
		return fiber.NewError(fiber.StatusRequestEntityTooLarge, "file exceeds upload limit")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "cannot open file")
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "cannot read file")
	}

	ct := fileHeader.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	ct = strings.TrimSpace(strings.Split(ct, ";")[0])
	if !allowedUploadTypes[ct] {
		return fiber.NewError(fiber.StatusBadRequest, "unsupported file type")
	}

	name := uuid.NewString() + strings.ToLower(filepath.Ext(fileHeader.Filename))
	url, err := s.store.Save(c.Context(), name, ct, data)
	if err != nil {
		s.log.Errorw("attachment upload", "name", name, "err", err)
		return fiber.NewError(fiber.StatusInternalServerError, "upload failed")
	}

	resp := fiber.Map{"url": url}

	// Thumbnail still images for the chat media grid; best-effort.
	if strings.HasPrefix(ct, "image/") && ct != "image/gif" {
		if thumb, err := storage.Thumbnail(data); err == nil {
			if thumbURL, err := s.store.Save(c.Context(), name+"_thumb.jpg", "image/jpeg", thumb); err == nil {
				resp["thumbnailUrl"] = thumbURL
			}
		}
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}
