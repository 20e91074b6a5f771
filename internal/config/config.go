package config

import (
	"log"
	"os"
	"strconv"

	"docchat-be/internal/constant"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Engine   EngineConfig
}

type AppConfig struct {
	Port                 string
	Environment          string
	LogFilePath          string
	CorsAllowedOrigins   string
	NatsURL              string
	RedisURL             string
	ActivityTopicName    string
	MirrorActivityToNats bool
}

type DatabaseConfig struct {
	Connection string
}

type EngineConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:                 getEnv("APP_PORT", "3000"),
			Environment:          getEnv("GO_ENV", "development"),
			LogFilePath:          getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins:   getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			NatsURL:              getEnv("NATS_URL", ""),
			RedisURL:             getEnv("REDIS_URL", ""),
			ActivityTopicName:    getEnv("SESSION_ACTIVITY_TOPIC_NAME", constant.SessionActivityTopicName),
			MirrorActivityToNats: getEnvAsBool("MIRROR_ACTIVITY_TO_NATS", true),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Engine: EngineConfig{
			BaseURL:        getEnv("ENGINE_BASE_URL", "http://localhost:8000"),
			TimeoutSeconds: getEnvAsInt("ENGINE_TIMEOUT_SECONDS", 120),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
