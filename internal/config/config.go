package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	AppPort    string
	AppEnv     string
	LogLevel   string

	SecretKey         string
	InternalSecretKey string

	RedisAddr string
	CartTTL   time.Duration

	AMQPURL string

	CORSOrigins []string

	TxTimeout time.Duration

	PaymentCallbackToken string
	WechatAppID          string
	AlipayAppID          string
}

func LoadConfig() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:               os.Getenv("DB_HOST"),
		DBUser:               os.Getenv("DB_USER"),
		DBPassword:           os.Getenv("DB_PASSWORD"),
		DBName:               os.Getenv("DB_NAME"),
		DBPort:               os.Getenv("DB_PORT"),
		AppPort:              os.Getenv("APP_PORT"),
		AppEnv:               os.Getenv("APP_ENV"),
		LogLevel:             os.Getenv("LOG_LEVEL"),
		SecretKey:            os.Getenv("SECRET_KEY"),
		InternalSecretKey:    os.Getenv("INTERNAL_SECRET_KEY"),
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		CartTTL:              durationEnv("CART_TTL", 72*time.Hour),
		AMQPURL:              os.Getenv("AMQP_URL"),
		CORSOrigins:          listEnv("CORS_ORIGINS"),
		TxTimeout:            durationEnv("TX_TIMEOUT", 5*time.Second),
		PaymentCallbackToken: os.Getenv("PAYMENT_CALLBACK_TOKEN"),
		WechatAppID:          os.Getenv("WECHAT_APP_ID"),
		AlipayAppID:          os.Getenv("ALIPAY_APP_ID"),
	}

	if cfg.DBHost == "" {
		log.Fatal("Environment variables not loaded properly")
	}

	if cfg.AppPort == "" {
		cfg.AppPort = "8080"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}

	return cfg
}

// IsProduction reports whether development-only endpoints must stay disabled.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		log.Printf("invalid %s=%q, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

func listEnv(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
