package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config is the process configuration, read once at startup.
type Config struct {
	Port string `env:"PORT,default=8000"`

	MySQLHost     string `env:"MYSQL_HOST,default=localhost"`
	MySQLPort     string `env:"MYSQL_PORT,default=3306"`
	MySQLDatabase string `env:"MYSQL_DATABASE,default=directory"`
	MySQLUser     string `env:"MYSQL_USER,default=root"`
	MySQLPassword string `env:"MYSQL_PASSWORD"`
	MySQLMaxConns int    `env:"MYSQL_MAX_CONNS,default=10"`

	RedisAddr     string `env:"REDIS_ADDR,default=localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB,default=0"`

	JWTSecret string        `env:"JWT_SECRET,required"`
	TokenTTL  time.Duration `env:"TOKEN_TTL,default=24h"`

	KafkaBrokers   string `env:"KAFKA_BROKERS"`
	KafkaLinkTopic string `env:"KAFKA_LINK_TOPIC,default=profile-links"`
	KafkaGroupID   string `env:"KAFKA_GROUP_ID,default=directory-service-group"`

	RateLimit float64 `env:"RATE_LIMIT,default=20"`
	RateBurst int     `env:"RATE_BURST,default=40"`

	LogLevel string `env:"LOG_LEVEL,default=info"`
}

// Load reads a .env file when one is present and decodes the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET must not be blank")
	}
	if c.MySQLMaxConns < 1 {
		return fmt.Errorf("MYSQL_MAX_CONNS must be positive, got %d", c.MySQLMaxConns)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return nil
}

// MySQLDSN returns the driver DSN. Found rows are reported for updates so a replace
// with unchanged values still counts as a match.
func (c *Config) MySQLDSN() string {
	mc := mysql.NewConfig()
	mc.User = c.MySQLUser
	mc.Passwd = c.MySQLPassword
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(c.MySQLHost, c.MySQLPort)
	mc.DBName = c.MySQLDatabase
	mc.ClientFoundRows = true
	mc.ParseTime = true
	return mc.FormatDSN()
}

// Brokers splits KAFKA_BROKERS. An empty result disables link reconciliation.
func (c *Config) Brokers() []string {
	var brokers []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Level returns the parsed LOG_LEVEL.
func (c *Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}
