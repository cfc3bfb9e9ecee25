// Package config предоставляет структуры и функции для парсинга и загрузки конфига
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// ErrConfiguration возвращается, если обязательная настройка отсутствует или конфиг не читается.
var ErrConfiguration = errors.New("configuration error")

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	RedisConnection `yaml:"redis_connection"`
	RabbitMQ        `yaml:"rabbitmq"`
	Ebay            `yaml:"ebay"`
	Session         `yaml:"session"`
	RateLimit       `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// RabbitMQ структура для настройки брокера событий. Пустой URL отключает публикацию.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env:"RABBITMQ_MAX_RETRIES" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env:"RABBITMQ_RETRY_DELAY" env-default:"2s"`
	OrdersExchange     string        `yaml:"orders_exchange" env:"RABBITMQ_ORDERS_EXCHANGE" env-default:"orders"`
}

// Ebay структура для работы с Buy Order API
type Ebay struct {
	ClientID          string        `yaml:"client_id" env:"EBAY_CLIENT_ID" env-required:"true"`
	ClientSecret      string        `yaml:"client_secret" env:"EBAY_CLIENT_SECRET" env-required:"true"`
	BaseAPIURL        string        `yaml:"base_api_url" env:"EBAY_BASE_API_URL" env-required:"true"`
	PlaceOrderBaseURL string        `yaml:"place_order_base_url" env:"EBAY_PLACE_ORDER_BASE_URL"`
	Hostname          string        `yaml:"hostname" env:"HOSTNAME" env-required:"true"`
	MarketplaceID     string        `yaml:"marketplace_id" env:"EBAY_MARKETPLACE_ID" env-default:"EBAY_US"`
	RequestTimeout    time.Duration `yaml:"request_timeout" env:"EBAY_REQUEST_TIMEOUT" env-default:"15s"`
	TokenDefaultTTL   time.Duration `yaml:"token_default_ttl" env:"EBAY_TOKEN_DEFAULT_TTL" env-default:"2h"`
	TokenRefreshSkew  time.Duration `yaml:"token_refresh_skew" env:"EBAY_TOKEN_REFRESH_SKEW" env-default:"1m"`
}

// Session структура для хранения checkout-сессий между initiate и finalize
type Session struct {
	SessionTTL          time.Duration `yaml:"ttl" env:"SESSION_TTL" env-default:"1h"`
	FinalizeTokenSecret string        `yaml:"finalize_token_secret" env:"FINALIZE_TOKEN_SECRET" env-required:"true"`
}

// RateLimit структура для ограничения частоты запросов на оформление заказа
type RateLimit struct {
	RPS   float64 `yaml:"rps" env:"RATE_LIMIT_RPS" env-default:"5"`
	Burst int     `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// Load читает конфиг из файла path (если задан) и переменных окружения.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w: file %s does not exist", op, ErrConfiguration, path)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", op, ErrConfiguration, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, ErrConfiguration, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if cfg.PlaceOrderBaseURL == "" {
		cfg.PlaceOrderBaseURL = cfg.BaseAPIURL
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и завершает процесс при любой ошибке.
func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

func (c *Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"ebay.client_id", c.ClientID},
		{"ebay.client_secret", c.ClientSecret},
		{"ebay.base_api_url", c.BaseAPIURL},
		{"ebay.hostname", c.Hostname},
		{"session.finalize_token_secret", c.FinalizeTokenSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%w: %s is not set", ErrConfiguration, r.name)
		}
	}
	return nil
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  User: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"  OrdersExchange: %s\n"+
			"Ebay:\n"+
			"  ClientID: %s\n"+
			"  ClientSecret: %s\n"+
			"  BaseAPIURL: %s\n"+
			"  PlaceOrderBaseURL: %s\n"+
			"  Hostname: %s\n"+
			"  MarketplaceID: %s\n"+
			"  RequestTimeout: %s\n"+
			"Session:\n"+
			"  TTL: %s\n"+
			"  FinalizeTokenSecret: %s\n",
		c.Env,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.AddressRedis,
		c.User,
		mask(c.Password),
		c.DB,
		mask(c.RabbitMQURL),
		c.OrdersExchange,
		c.ClientID,
		mask(c.ClientSecret),
		c.BaseAPIURL,
		c.PlaceOrderBaseURL,
		c.Hostname,
		c.MarketplaceID,
		c.RequestTimeout,
		c.SessionTTL,
		mask(c.FinalizeTokenSecret),
	)
}
