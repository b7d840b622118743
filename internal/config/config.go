package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Gemini    GeminiConfig
	Adzuna    AdzunaConfig
	Matching  MatchingConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type AdzunaConfig struct {
	AppID   string
	AppKey  string
	Country string
}

type MatchingConfig struct {
	RequestTimeout time.Duration
	MaxConcurrency int
}

type SchedulerConfig struct {
	Enabled      bool
	RefreshSpec  string
	CleanupSpec  string
	RefreshLimit int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using default values.")
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "3000"),
			Env:  getEnv("ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "jobtrackr_matching"),
		},
		Gemini: GeminiConfig{
			APIKey: getEnv("GEMINI_API_KEY", ""),
			Model:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		},
		Adzuna: AdzunaConfig{
			AppID:   getEnv("ADZUNA_APP_ID", ""),
			AppKey:  getEnv("ADZUNA_APP_KEY", ""),
			Country: getEnv("ADZUNA_COUNTRY", "us"),
		},
		Matching: MatchingConfig{
			RequestTimeout: getEnvAsDuration("AI_REQUEST_TIMEOUT", "30s"),
			MaxConcurrency: getEnvAsInt("SCORING_MAX_CONCURRENCY", 4),
		},
		Scheduler: SchedulerConfig{
			Enabled:      getEnvAsBool("SCHEDULER_ENABLED", true),
			RefreshSpec:  getEnv("RECOMMENDATION_REFRESH_CRON", "0 */6 * * *"),
			CleanupSpec:  getEnv("JOB_CLEANUP_CRON", "0 0 * * *"),
			RefreshLimit: getEnvAsInt("RECOMMENDATION_REFRESH_LIMIT", 5),
		},
	}
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
