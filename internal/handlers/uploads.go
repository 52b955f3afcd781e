package handlers

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Windi-Fikriyansyah/gigmarket/internal/storage"
)

var uploadExts = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true,
	".pdf": true, ".mp4": true,
}

type UploadHandler struct {
	Objects  storage.ObjectStore
	MaxBytes int64
	Log      *logrus.Logger
}

// Upload stores the multipart field "file" under the caller's prefix and
// returns its public URL.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	uid, err := getUserUUID(c)
	if err != nil {
		return fail(c, fiber.StatusUnauthorized, "Token is not valid")
	}

	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "File is required (multipart field: file)")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !uploadExts[ext] {
		return fail(c, fiber.StatusBadRequest, "Unsupported file type")
	}
	if h.MaxBytes > 0 && file.Size > h.MaxBytes {
		return fail(c, fiber.StatusBadRequest, fmt.Sprintf("File exceeds %d bytes", h.MaxBytes))
	}

	src, err := file.Open()
	if err != nil {
		return serverError(c, h.Log, err)
	}
	defer src.Close()

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := fmt.Sprintf("%s/%s%s", uid.String(), uuid.New().String(), ext)
	url, err := h.Objects.Put(c.UserContext(), key, src, file.Size, contentType)
	if err != nil {
		return serverError(c, h.Log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"url": url})
}
