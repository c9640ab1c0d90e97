package main

import (
	"log"
	"os"
	"time"

	"github.com/Kyz7/skycast/internal/auth"
	"github.com/Kyz7/skycast/internal/config"
	"github.com/Kyz7/skycast/internal/database"
	"github.com/Kyz7/skycast/internal/mailer"
	"github.com/Kyz7/skycast/internal/otp"
	"github.com/Kyz7/skycast/internal/server"
	"github.com/Kyz7/skycast/internal/session"
	"github.com/Kyz7/skycast/internal/utils"
	"github.com/Kyz7/skycast/internal/weather"
)

func main() {
	cfg := config.Load()

	if err := utils.ValidateJWTSecret(); err != nil {
		log.Fatal("❌ JWT Configuration Error: ", err)
	}
	log.Println("✅ JWT secret validated")

	requiredEnvVars := map[string]string{
		"DB_HOST":     os.Getenv("DB_HOST"),
		"DB_NAME":     os.Getenv("DB_NAME"),
		"DB_USER":     os.Getenv("DB_USER"),
		"DB_PASSWORD": os.Getenv("DB_PASSWORD"),
	}

	for key, value := range requiredEnvVars {
		if value == "" {
			log.Fatalf("❌ Required environment variable %s is not set", key)
		}
	}
	log.Println("✅ Required environment variables validated")

	// ========== DATABASE SETUP ==========
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatal("❌ Database connection failed:", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatal("❌ Migration failed: ", err)
	}
	log.Println("✅ Database migrated successfully")

	// ========== COLLABORATORS ==========
	auth.Sender = mailer.FromConfig(cfg)
	weather.Configure(cfg)

	if cfg.WeatherAPIKey == "" {
		log.Println("⚠️  WEATHER_API_KEY not set, weather lookups will fail")
	}

	// ========== BACKGROUND JOBS ==========
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if n, err := otp.SweepExpired(); err == nil && n > 0 {
				log.Printf("🧹 Cleaned up %d expired passcodes", n)
			}
			if n, err := session.SweepExpired(); err == nil && n > 0 {
				log.Printf("🧹 Cleaned up %d expired refresh tokens", n)
			}
		}
	}()

	// ========== START SERVER ==========
	app := server.New(db)

	log.Printf("🚀 Skycast Server starting on %s", cfg.ServerAddr)
	log.Printf("🔐 JWT Authentication: Enabled")
	log.Printf("🌤  Weather API: %s", cfg.WeatherAPIURL)

	if err := app.Listen(cfg.ServerAddr); err != nil {
		log.Fatal("❌ Failed to start server:", err)
	}
}
