package server

import (
	"time"

	"github.com/Kyz7/skycast/internal/auth"
	"github.com/Kyz7/skycast/internal/favorites"
	"github.com/Kyz7/skycast/internal/weather"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func SetupRoutes(app *fiber.App) {
	// Middleware
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS, PATCH",
	}))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "Skycast API is running",
		})
	})

	// ==========================================
	// AUTH ROUTES (No authentication required)
	// ==========================================
	authGroup := app.Group("/auth")
	authGroup.Post("/register/request", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
	}), auth.RequestRegistrationCodeHandler)
	authGroup.Post("/register/complete", auth.CompleteRegistrationHandler)
	authGroup.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 15 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}), auth.LoginHandler)
	authGroup.Post("/forgot-password", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 1 * time.Minute,
	}), auth.ForgotPasswordHandler)
	authGroup.Post("/reset-password/verify", auth.VerifyResetCodeHandler)
	authGroup.Post("/reset-password", auth.ResetPasswordHandler)
	authGroup.Post("/refresh", auth.RefreshHandler)
	authGroup.Post("/logout", auth.LogoutHandler)

	// ==========================================
	// WEATHER (Authenticated)
	// ==========================================
	weatherGroup := app.Group("/weather")
	weatherGroup.Use(auth.JWTProtected())
	weatherGroup.Get("/", weather.GetWeatherHandler)
	weatherGroup.Get("/search", weather.SearchCityHandler)

	// ==========================================
	// FAVORITES (Authenticated)
	// ==========================================
	favGroup := app.Group("/favorites")
	favGroup.Use(auth.JWTProtected())
	favGroup.Post("/", favorites.CreateFavoriteHandler)
	favGroup.Get("/", favorites.ListFavoritesHandler)
	favGroup.Delete("/:id", favorites.DeleteFavoriteHandler)
}
