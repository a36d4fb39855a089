package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"commutewise/internal/models"
)

// Config holds everything the composition root needs to wire the app.
type Config struct {
	Port string

	// Mapbox credential shared by the directions and geocoding clients.
	// Empty means the routing provider is unconfigured; previews degrade
	// and saves abort with a configuration error.
	MapboxToken string

	// Override endpoints, mainly for tests. Empty uses the public APIs.
	DirectionsURL string
	GeocodingURL  string
}

// Load reads .env (if present) and the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found – relying on env vars")
	}
	return Config{
		Port:          getEnv("PORT", "8080"),
		MapboxToken:   getEnv("MAPBOX_TOKEN", ""),
		DirectionsURL: getEnv("MAPBOX_DIRECTIONS_URL", ""),
		GeocodingURL:  getEnv("MAPBOX_GEOCODING_URL", ""),
	}
}

// InitDB opens the database connection using environment variables and
// runs migrations. The handle is returned to the caller for injection;
// nothing here is kept as a package global.
func InitDB() (*gorm.DB, error) {
	host := getEnv("DB_HOST", "localhost")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "postgres")
	password := getEnv("DB_PASSWORD", "password")
	dbname := getEnv("DB_NAME", "commutewise")
	sslmode := getEnv("DB_SSLMODE", "disable")
	timezone := getEnv("DB_TIMEZONE", "UTC")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		host, user, password, dbname, port, sslmode, timezone,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	db.Exec("CREATE EXTENSION IF NOT EXISTS postgis;")

	if err := db.AutoMigrate(
		&models.User{},
		&models.Stop{},
		&models.Route{},
		&models.RouteStop{},
	); err != nil {
		return nil, fmt.Errorf("auto-migration failed: %w", err)
	}

	return db, nil
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, defaultValue string) string {
	if v, exists := os.LookupEnv(key); exists {
		return v
	}
	return defaultValue
}
