package config

import (
	"fmt"
	"log"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// SMTP структура для настройки почтового сервера
type SMTP struct {
	SMTPHost string `yaml:"host" env:"SMTP_HOST"`
	SMTPPort string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	SMTPUser string `yaml:"user" env:"SMTP_USER"`
	SMTPPass string `yaml:"password" env:"SMTP_PASS"`
}

// Notifier конфиг воркера, который рассылает подтверждения размещённых заказов.
// Читает тот же файл, что и Config, но использует только свои секции.
type Notifier struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	RabbitMQ `yaml:"rabbitmq"`
	SMTP     `yaml:"smtp"`
	Queue    string `yaml:"notifier_queue" env:"NOTIFIER_QUEUE" env-default:"orders.placed"`
	Workers  int    `yaml:"notifier_workers" env:"NOTIFIER_WORKERS" env-default:"4"`
}

// LoadNotifier читает конфиг воркера уведомлений.
func LoadNotifier(path string) (*Notifier, error) {
	const op = "config.LoadNotifier"
	var cfg Notifier

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

	for _, r := range []struct{ name, value string }{
		{"rabbitmq.url", cfg.RabbitMQURL},
		{"smtp.host", cfg.SMTPHost},
		{"smtp.user", cfg.SMTPUser},
	} {
		if r.value == "" {
			return nil, fmt.Errorf("%s: %w: %s is not set", op, ErrConfiguration, r.name)
		}
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	return &cfg, nil
}

// MustLoadNotifier загружает конфиг воркера по пути из CONFIG_PATH.
func MustLoadNotifier() *Notifier {
	cfg, err := LoadNotifier(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read notifier config: %s", err)
	}
	return cfg
}
