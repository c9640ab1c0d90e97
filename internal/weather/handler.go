package weather

import (
	"errors"

	"github.com/Kyz7/skycast/internal/middleware"
	"github.com/Kyz7/skycast/internal/response"
	"github.com/gofiber/fiber/v2"
)

func GetWeatherHandler(c *fiber.Ctx) error {
	city := middleware.CleanInput(c.Query("city"))
	if city == "" {
		return response.ValidationError(c, map[string]string{
			"city": "city query parameter is required",
		})
	}

	payload, err := Current(city)
	if err != nil {
		if errors.Is(err, ErrUpstream) {
			return response.BadGateway(c, "Weather service unavailable")
		}
		return response.InternalError(c, "Failed to fetch weather")
	}

	return response.Success(c, payload, "Weather retrieved successfully")
}

func SearchCityHandler(c *fiber.Ctx) error {
	query := middleware.CleanInput(c.Query("q"))
	if query == "" {
		return response.ValidationError(c, map[string]string{
			"q": "q query parameter is required",
		})
	}

	payload, err := SearchCity(query)
	if err != nil {
		if errors.Is(err, ErrUpstream) {
			return response.BadGateway(c, "Weather service unavailable")
		}
		return response.InternalError(c, "Failed to search cities")
	}

	return response.Success(c, payload, "Cities retrieved successfully")
}
