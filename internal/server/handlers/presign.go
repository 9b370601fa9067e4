package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"wingetdepot/internal/storage"
)

// GeneratePresignedURL hands out a time-limited PUT URL so clients can
// stage large installers directly into the bucket before registering
// them. Only available when the content store is S3-backed.
func GeneratePresignedURL(c *fiber.Ctx) error {
	s3Store, ok := Cat.Store().(*storage.S3Store)
	if !ok {
		return fiber.NewError(fiber.StatusBadRequest, "presigned uploads require S3 storage")
	}

	fileName := c.FormValue("file_name")
	contentType := c.FormValue("content_type")
	publisher := c.FormValue("publisher")
	identifier := c.FormValue("identifier")
	version := c.FormValue("installer-version")
	architecture := c.FormValue("installer-architecture")
	scope := c.FormValue("installer-installer_scope")
	if fileName == "" || publisher == "" || identifier == "" || version == "" || architecture == "" || scope == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing presign parameters")
	}

	// The staged object lands under the same key the catalog will
	// address it by: {scope}.{ext} inside the architecture directory.
	storedName := storage.StoredFileName(scope, fileName)
	key := storage.ObjectKey(publisher, identifier, version, architecture, storedName)

	presigned, err := s3Store.PresignPut(c.Context(), key, contentType)
	if err != nil {
		return fiber.ErrInternalServerError
	}

	recordAccess(c, fmt.Sprintf("Generated presigned URL for %s (%s) at %s", fileName, contentType, key))
	return c.JSON(fiber.Map{
		"presigned_url": presigned,
		"content_type":  contentType,
		"file_name":     fileName,
		"file_path":     key,
	})
}
