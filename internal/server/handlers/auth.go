package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"wingetdepot/internal/database"
	"wingetdepot/internal/models"
	"wingetdepot/internal/services"
)

// Login exchanges email/password for a JWT.
func Login(c *fiber.Ctx) error {
	var in struct {
		Email    string `json:"email" form:"email"`
		Password string `json:"password" form:"password"`
	}
	if err := c.BodyParser(&in); err != nil {
		return fiber.ErrBadRequest
	}
	var user models.User
	if err := database.DB.Where("email = ?", in.Email).First(&user).Error; err != nil {
		return fiber.ErrUnauthorized
	}
	if !user.CheckPassword(in.Password) || !user.IsActive {
		return fiber.ErrUnauthorized
	}
	token, err := services.GenerateUserToken(user.ID, user.Role, 12*time.Hour)
	if err != nil {
		return fiber.ErrInternalServerError
	}
	c.Cookie(&fiber.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(12 * time.Hour),
		HTTPOnly: true,
		SameSite: "Lax",
		Path:     "/",
	})
	return c.JSON(fiber.Map{"token": token})
}

func Whoami(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)
	return c.JSON(user)
}
