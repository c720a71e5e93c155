package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type Config struct {
	Logger  Logger  `yaml:"logger"`
	Storage Storage `yaml:"storage"`
	Auth    Auth    `yaml:"auth"`
	Listen  string  `yaml:"listen"`
	Admin   Admin   `yaml:"admin"`
	CORS    CORS    `yaml:"cors"`
	Contest Contest `yaml:"contest"`
	Oracle  Oracle  `yaml:"oracle"`
	Redis   Redis   `yaml:"redis"`
	Kafka   Kafka   `yaml:"kafka"`
}

type Logger struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type Storage struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver   string `yaml:"driver"`
	Database string `yaml:"database"`
}

type Auth struct {
	JWT JWT `yaml:"jwt"`
}

type JWT struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type Admin struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// Contest holds the scoring and attempt policy.
type Contest struct {
	StartGrace         time.Duration `yaml:"start_grace"`
	DivisorFloor       int           `yaml:"divisor_floor"`
	TransactionTimeout time.Duration `yaml:"transaction_timeout"`
}

type Oracle struct {
	// Mode is "trust" (default) or "http".
	Mode     string        `yaml:"mode"`
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

// Default returns the configuration used when a key is absent from the file.
func Default() Config {
	return Config{
		Logger:  Logger{Level: "info"},
		Storage: Storage{Driver: "sqlite", Database: "data/csarena.db"},
		Auth:    Auth{JWT: JWT{ExpireHours: 72}},
		Listen:  ":8080",
		Admin:   Admin{Listen: "127.0.0.1:8081"},
		Contest: Contest{
			StartGrace:         10 * time.Second,
			DivisorFloor:       4,
			TransactionTimeout: 40 * time.Second,
		},
		Oracle: Oracle{Mode: "trust", Timeout: 10 * time.Second, CacheTTL: time.Hour},
		Redis:  Redis{Channel: "csarena:events"},
		Kafka:  Kafka{Topic: "csarena.events"},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Contest.DivisorFloor < 1 {
		cfg.Contest.DivisorFloor = 1
	}

	return &cfg, nil
}
