package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"rrg-backend/models"
)

// Fyers API base URLs per environment
const (
	FyersProductionURL = "https://api.fyers.in"
	FyersSandboxURL    = "https://api-t1.fyers.in"
)

// InstrumentsFile is an optional JSON file overriding the default fetch universe
const InstrumentsFile = "data/instruments.json"

// DefaultBenchmarkPrice is the NIFTY-50 reference price used for RS-Ratio
// when no BENCHMARK_PRICE is configured
const DefaultBenchmarkPrice = 4536.89

type Config struct {
	Port        string
	Environment string

	// Fyers credentials
	FyersAppID         string
	FyersSecretKey     string
	FyersRefreshToken  string
	FyersFallbackToken string
	FyersEnv           string
	FyersAPIVersion    string
	FyersBaseURL       string

	// Supabase REST store
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	SupabaseJWTSecret  string

	// Direct Postgres store (self-hosted mode)
	StoreBackend string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string

	BenchmarkPrice float64
	Instruments    []models.Instrument
}

var AppConfig *Config
var DB *gorm.DB

// LoadConfig loads environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	config := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),

		FyersAppID:         getEnv("FYERS_APP_ID", ""),
		FyersSecretKey:     getEnv("FYERS_SECRET_KEY", ""),
		FyersRefreshToken:  getEnv("FYERS_REFRESH_TOKEN", ""),
		FyersFallbackToken: getEnv("FYERS_ACCESS_TOKEN", ""),
		FyersEnv:           getEnv("FYERS_ENV", "live"),
		FyersAPIVersion:    getEnv("FYERS_API_VERSION", "v3"),
		FyersBaseURL:       getEnv("FYERS_BASE_URL", ""),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),

		StoreBackend: getEnv("STORE_BACKEND", "supabase"),
		DBHost:       getEnv("DB_HOST", "localhost"),
		DBPort:       getEnv("DB_PORT", "5432"),
		DBUser:       getEnv("DB_USER", "postgres"),
		DBPassword:   getEnv("DB_PASSWORD", ""),
		DBName:       getEnv("DB_NAME", "rrg_db"),

		BenchmarkPrice: getEnvFloat("BENCHMARK_PRICE", DefaultBenchmarkPrice),
		Instruments:    loadInstruments(),
	}

	// FYERS_BASE_URL overrides the environment-derived host when set
	if config.FyersBaseURL == "" {
		config.FyersBaseURL = fyersBaseURL(config.FyersEnv)
	}

	AppConfig = config
	return config, nil
}

// fyersBaseURL returns the upstream host for the configured environment
func fyersBaseURL(env string) string {
	switch env {
	case "t1", "sandbox", "test":
		return FyersSandboxURL
	default:
		return FyersProductionURL
	}
}

// InitDB initializes a direct Postgres connection for the self-hosted store backend
func InitDB() (*gorm.DB, error) {
	log.Printf("Connecting to database: host=%s port=%s user=%s dbname=%s",
		maskHost(AppConfig.DBHost),
		AppConfig.DBPort,
		AppConfig.DBUser,
		AppConfig.DBName,
	)

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=require TimeZone=UTC",
		AppConfig.DBHost,
		AppConfig.DBUser,
		AppConfig.DBPassword,
		AppConfig.DBName,
		AppConfig.DBPort,
	)

	var logLevel logger.LogLevel
	if AppConfig.Environment == "production" {
		logLevel = logger.Error
	} else {
		logLevel = logger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})

	if err != nil {
		log.Printf("Database connection error: %v", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	log.Printf("Database connection verified successfully")
	DB = db
	return db, nil
}

// loadInstruments reads the fetch universe from InstrumentsFile if present,
// falling back to the built-in default universe
func loadInstruments() []models.Instrument {
	data, err := os.ReadFile(InstrumentsFile)
	if err != nil {
		return models.DefaultUniverse
	}

	var instruments []models.Instrument
	if err := json.Unmarshal(data, &instruments); err != nil {
		log.Printf("Warning: invalid instruments file %s: %v", InstrumentsFile, err)
		return models.DefaultUniverse
	}
	if len(instruments) == 0 {
		return models.DefaultUniverse
	}

	log.Printf("Loaded %d instruments from %s", len(instruments), InstrumentsFile)
	return instruments
}

// maskHost masks host for logging, preserving domain structure
func maskHost(host string) string {
	if len(host) <= 3 {
		return "***"
	}
	if len(host) <= 15 {
		return host[:3] + "***"
	}
	return host[:8] + "***" + host[len(host)-10:]
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvFloat gets a float environment variable or returns a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("Warning: invalid value for %s: %q, using default", key, value)
		return defaultValue
	}
	return parsed
}
