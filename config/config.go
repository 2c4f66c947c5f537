package config

import (
	"fmt"
	"os"
	"strings"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Config holds everything read from the environment. godotenv loads .env
// in main before this is called.
type Config struct {
	Port          string
	PublicBaseURL string
	RedisAddr     string
	KafkaBrokers  []string
	KafkaTopic    string
	UploadDir     string
}

func Load() Config {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		KafkaTopic:    getEnv("KAFKA_TOPIC", "teashop.order-events"),
		UploadDir:     getEnv("UPLOAD_DIR", "public/uploads"),
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	return cfg
}

// InitDB opens the MySQL connection described by the DB_* variables.
func InitDB() (*gorm.DB, error) {
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			getEnv("DB_USER", "root"),
			os.Getenv("DB_PASSWORD"),
			getEnv("DB_HOST", "127.0.0.1"),
			getEnv("DB_PORT", "3306"),
			getEnv("DB_NAME", "teashop"),
		)
	}
	return gorm.Open(mysql.Open(dsn), &gorm.Config{})
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
