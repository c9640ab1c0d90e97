package favorites

import (
	"github.com/Kyz7/skycast/internal/database"
	"github.com/Kyz7/skycast/internal/middleware"
	"github.com/Kyz7/skycast/internal/models"
	"github.com/Kyz7/skycast/internal/response"
	"github.com/gofiber/fiber/v2"
)

func CreateFavoriteHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var body struct {
		City  string `json:"city"`
		Label string `json:"label"`
	}

	if err := c.BodyParser(&body); err != nil {
		return response.BadRequest(c, "Invalid request body", err.Error())
	}

	city := middleware.CleanInput(body.City)
	if city == "" {
		return response.ValidationError(c, map[string]string{
			"city": "city is required",
		})
	}

	var existing models.Favorite
	if err := database.DB.Where("user_id = ? AND city = ?", userID, city).First(&existing).Error; err == nil {
		return response.Conflict(c, "City is already in favorites")
	}

	fav := models.Favorite{
		UserID: userID,
		City:   city,
		Label:  middleware.CleanInput(body.Label),
	}

	if err := database.DB.Create(&fav).Error; err != nil {
		return response.InternalError(c, "Failed to create favorite")
	}

	return response.Created(c, fav, "Favorite created successfully")
}

func ListFavoritesHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	var favs []models.Favorite
	if err := database.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&favs).Error; err != nil {
		return response.InternalError(c, "Failed to fetch favorites")
	}

	return response.Success(c, favs, "Favorites retrieved successfully")
}

func DeleteFavoriteHandler(c *fiber.Ctx) error {
	userID := c.Locals("user_id").(uint)

	id, err := c.ParamsInt("id")
	if err != nil {
		return response.BadRequest(c, "Invalid favorite ID", nil)
	}

	var fav models.Favorite
	if err := database.DB.Where("id = ? AND user_id = ?", id, userID).First(&fav).Error; err != nil {
		return response.NotFound(c, "Favorite")
	}

	if err := database.DB.Delete(&fav).Error; err != nil {
		return response.InternalError(c, "Failed to delete favorite")
	}

	return response.NoContent(c)
}
