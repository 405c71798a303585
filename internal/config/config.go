package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Values are resolved in order:
// built-in defaults, then the optional YAML file named by CONFIG_FILE, then
// environment variables.
type Config struct {
	Service   ServiceConfig   `yaml:"service"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	NATS      NATSConfig      `yaml:"nats"`
	Endpoints EndpointsConfig `yaml:"endpoints"`
	Approvers ApproversConfig `yaml:"approvers"`
}

type ServiceConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Host        string        `yaml:"host"`
	Port        int           `yaml:"port"`
	User        string        `yaml:"user"`
	Password    string        `yaml:"password"`
	Database    string        `yaml:"database"`
	SSLMode     string        `yaml:"ssl_mode"`
	MaxConns    int32         `yaml:"max_conns"`
	MinConns    int32         `yaml:"min_conns"`
	MaxConnTime time.Duration `yaml:"max_conn_time"`
	MaxIdleTime time.Duration `yaml:"max_idle_time"`
	HealthCheck time.Duration `yaml:"health_check"`
}

type NATSConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// EndpointsConfig holds base URLs for the sibling procurement APIs. In the
// all-in-one deployment they point back at this instance.
type EndpointsConfig struct {
	InvoiceAPI       string        `yaml:"invoice_api"`
	PurchaseOrderAPI string        `yaml:"purchase_order_api"`
	GoodsReceivedAPI string        `yaml:"goods_received_api"`
	SafeLimitAPI     string        `yaml:"safe_limit_api"`
	CallTimeout      time.Duration `yaml:"call_timeout"`
}

// ApproversConfig names the default approver per amount tier, used only when
// a purchase order carries no requestor and no override names an approver.
type ApproversConfig struct {
	Junior    string `yaml:"junior"`
	Senior    string `yaml:"senior"`
	Executive string `yaml:"executive"`
}

// Load resolves the service configuration.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}

	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "be-ap-procurement",
			Version:     "0.1.0",
			Environment: "development",
			LogLevel:    "info",
		},
		Server: ServerConfig{
			Port:            8086,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:        "localhost",
			Port:        5432,
			User:        "postgres",
			Password:    "postgres",
			Database:    "procurement",
			SSLMode:     "disable",
			MaxConns:    10,
			MinConns:    2,
			MaxConnTime: time.Hour,
			MaxIdleTime: 30 * time.Minute,
			HealthCheck: time.Minute,
		},
		NATS: NATSConfig{
			URL:     "nats://localhost:4222",
			Enabled: false,
		},
		Endpoints: EndpointsConfig{
			InvoiceAPI:       "http://localhost:8086",
			PurchaseOrderAPI: "http://localhost:8086",
			GoodsReceivedAPI: "http://localhost:8086",
			SafeLimitAPI:     "http://localhost:8086",
			CallTimeout:      10 * time.Second,
		},
		Approvers: ApproversConfig{
			Junior:    "ap.supervisor",
			Senior:    "finance.manager",
			Executive: "finance.director",
		},
	}
}

func applyEnv(cfg *Config) {
	setString(&cfg.Service.Name, "SERVICE_NAME")
	setString(&cfg.Service.Version, "SERVICE_VERSION")
	setString(&cfg.Service.Environment, "ENVIRONMENT")
	setString(&cfg.Service.LogLevel, "LOG_LEVEL")

	setInt(&cfg.Server.Port, "PORT")

	setString(&cfg.Database.Host, "DB_HOST")
	setInt(&cfg.Database.Port, "DB_PORT")
	setString(&cfg.Database.User, "DB_USER")
	setString(&cfg.Database.Password, "DB_PASSWORD")
	setString(&cfg.Database.Database, "DB_NAME")
	setString(&cfg.Database.SSLMode, "DB_SSL_MODE")

	setString(&cfg.NATS.URL, "NATS_URL")
	setBool(&cfg.NATS.Enabled, "NATS_ENABLED")

	setString(&cfg.Endpoints.InvoiceAPI, "INVOICE_API_URL")
	setString(&cfg.Endpoints.PurchaseOrderAPI, "PURCHASE_ORDER_API_URL")
	setString(&cfg.Endpoints.GoodsReceivedAPI, "GOODS_RECEIVED_API_URL")
	setString(&cfg.Endpoints.SafeLimitAPI, "SAFE_LIMIT_API_URL")
	setDuration(&cfg.Endpoints.CallTimeout, "API_CALL_TIMEOUT")

	setString(&cfg.Approvers.Junior, "APPROVER_JUNIOR")
	setString(&cfg.Approvers.Senior, "APPROVER_SENIOR")
	setString(&cfg.Approvers.Executive, "APPROVER_EXECUTIVE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
