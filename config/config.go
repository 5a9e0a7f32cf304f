package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	CORS      CORSConfig
	Providers ProviderConfig
	Catalog   CatalogConfig
}

type ServerConfig struct {
	Port int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins string
}

// ProviderConfig holds the two external HTTP dependencies: the distance
// matrix service and the ML prediction service.
type ProviderConfig struct {
	DistanceMatrixURL string
	DistanceMatrixKey string
	JourneyPredictURL string
	CrowdPredictURL   string
	TimeoutSeconds    int
}

type CatalogConfig struct {
	// RoutesFile optionally points at a YAML route catalog. When empty the
	// embedded catalog is used.
	RoutesFile string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

func LoadConfig() (*Config, error) {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	serverPort, err := getIntEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := getIntEnv("DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	jwtExpiry, err := getIntEnv("JWT_EXPIRY_HOURS", 24)
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY_HOURS: %w", err)
	}

	redisPort, err := getIntEnv("REDIS_PORT", 6379)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_PORT: %w", err)
	}

	redisDB, err := getIntEnv("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	providerTimeout, err := getIntEnv("PROVIDER_TIMEOUT_SEC", 10)
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_TIMEOUT_SEC: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: serverPort,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "nextbus"),
			Password: getEnv("DB_PASSWORD", "nextbus_dev_password"),
			Name:     getEnv("DB_NAME", "nextbus"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", "dev-secret-change-me"),
			ExpiryHours: jwtExpiry,
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     redisPort,
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Providers: ProviderConfig{
			DistanceMatrixURL: getEnv("DISTANCE_MATRIX_URL", "https://maps.googleapis.com/maps/api/distancematrix/json"),
			DistanceMatrixKey: getEnv("DISTANCE_MATRIX_API_KEY", ""),
			JourneyPredictURL: getEnv("JOURNEY_PREDICT_URL", "http://localhost:5000/predict_bus"),
			CrowdPredictURL:   getEnv("CROWD_PREDICT_URL", "http://localhost:5000/predict"),
			TimeoutSeconds:    providerTimeout,
		},
		Catalog: CatalogConfig{
			RoutesFile: getEnv("ROUTES_FILE", ""),
		},
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
