package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"wingetdepot/internal/database"
	"wingetdepot/internal/models"
)

func Settings(c *fiber.Ctx) error {
	var settings []models.Setting
	if err := database.DB.Order("position").Find(&settings).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	return c.JSON(settings)
}

func UpdateSetting(c *fiber.Ctx) error {
	var in struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := c.BodyParser(&in); err != nil || in.Key == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid data")
	}
	var setting models.Setting
	if err := database.DB.Where("key = ?", in.Key).First(&setting).Error; err != nil {
		return fiber.NewError(fiber.StatusNotFound, "Setting not found")
	}
	setting.Value = in.Value
	if err := database.DB.Save(&setting).Error; err != nil {
		return fiber.ErrInternalServerError
	}
	recordAccess(c, fmt.Sprintf("Updated setting %s to %s", setting.Key, setting.Value))
	return c.JSON(setting)
}
