package handlers

import (
	"github.com/gofiber/fiber/v2"

	"wingetdepot/internal/database"
	"wingetdepot/internal/models"
)

func DownloadLogs(c *fiber.Ctx) error {
	var logs []models.Log
	err := database.DB.Where("kind = ?", models.LogKindDownload).
		Order("created_at desc").
		Find(&logs).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(logs)
}

func AccessLogs(c *fiber.Ctx) error {
	var logs []models.Log
	err := database.DB.Where("kind = ?", models.LogKindAccess).
		Order("created_at desc").
		Find(&logs).Error
	if err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(logs)
}
