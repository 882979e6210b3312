package config

import (
	"errors"
	"io/fs"

	"github.com/Bessima/fieldops/internal/middlewares/logger"
	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Address  string `env:"RUN_ADDRESS"`
	LogLevel string `env:"LOG_LEVEL"`

	DatabaseDNS string `env:"DATABASE_URI"`

	RoutingAddress string `env:"ROUTING_ADDRESS"`
	RoutingAPIKey  string `env:"ROUTING_API_KEY"`

	// Без IMPORT_ADDRESS заказы пишутся напрямую в базу.
	ImportAddress   string `env:"IMPORT_ADDRESS"`
	ImportAPIKey    string `env:"IMPORT_API_KEY"`
	ImportChunkSize int    `env:"IMPORT_CHUNK_SIZE"`

	JWTSecret string `env:"JWT_SECRET"`

	RedisAddress string `env:"REDIS_ADDRESS"`

	KafkaBrokers string `env:"KAFKA_BROKERS"`
	KafkaTopic   string `env:"KAFKA_TOPIC"`

	SNSTopicARN string `env:"SNS_TOPIC_ARN"`
	AWSRegion   string `env:"AWS_REGION"`
}

func InitConfig() *Config {
	loadDotEnv(".env")

	flags := Flags{}
	flags.Init()

	cfg := flags.Config()
	cfg.parseEnv()

	return &cfg
}

// loadDotEnv подхватывает .env, если файл есть; уже заданные переменные не перезаписываются.
func loadDotEnv(path string) {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Log.Warn("Getting an error while loading .env", zap.String("path", path), zap.Error(err))
	}
}

func (cfg *Config) parseEnv() {
	err := env.Parse(cfg)
	if err != nil {
		logger.Log.Warn("Getting an error while parsing the configuration", zap.String("err", err.Error()))
	}
}
