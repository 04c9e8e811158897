package configs

import (
	"fmt"
	"time"

	"github.com/hilthontt/huddle/internal/infrastructure/credentials"
	"github.com/hilthontt/huddle/internal/infrastructure/env"
	"github.com/hilthontt/huddle/internal/infrastructure/logging"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	HTTP      HTTPConfig           `koanf:"http"`
	WebSocket WebSocketConfig      `koanf:"websocket"`
	Security  SecurityConfig       `koanf:"security"`
	Rooms     RoomsConfig          `koanf:"rooms"`
	Logger    logging.LoggerConfig `koanf:"logger"`
	Tracing   TracingConfig        `koanf:"tracing"`
	Events    EventsConfig         `koanf:"events"`
}

type HTTPConfig struct {
	Host           string        `koanf:"host"`
	Port           uint16        `koanf:"port"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	AllowedHeaders []string      `koanf:"allowed_headers"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
}

type WebSocketConfig struct {
	PingInterval    time.Duration `koanf:"ping_interval"`
	PingTimeout     time.Duration `koanf:"ping_timeout"`
	SendBuffer      int           `koanf:"send_buffer"`
	MaxMessageBytes int64         `koanf:"max_message_bytes"`
}

type SecurityConfig struct {
	BcryptCost int `koanf:"bcrypt_cost"`
}

type RoomsConfig struct {
	// CleanupDelay is how long an empty room survives before it is deleted.
	CleanupDelay time.Duration `koanf:"cleanup_delay"`
}

type TracingConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Exporter    string `koanf:"exporter"` // otlp or jaeger
	Endpoint    string `koanf:"endpoint"`
	ServiceName string `koanf:"service_name"`
	Environment string `koanf:"environment"`
}

type EventsConfig struct {
	RabbitMQURI string `koanf:"rabbitmq_uri"`
	Exchange    string `koanf:"exchange"`
	QueueSize   int    `koanf:"queue_size"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Load from YAML file if it exists
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	applyDefaults(k)
	applyEnvOverrides(k)

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cost := cfg.Security.BcryptCost; cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("security.bcrypt_cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}

	return &cfg, nil
}

func applyDefaults(k *koanf.Koanf) {
	// HTTP defaults
	setDefault(k, "http.host", "0.0.0.0")
	setDefault(k, "http.port", 3001)
	setDefault(k, "http.read_timeout", 10*time.Second)
	setDefault(k, "http.write_timeout", 30*time.Second)
	setDefault(k, "http.allowed_origins", []string{"http://localhost:3000"})
	setDefault(k, "http.allowed_headers", []string{"Content-Type", "Authorization"})

	// WebSocket defaults
	setDefault(k, "websocket.ping_interval", 25*time.Second)
	setDefault(k, "websocket.ping_timeout", 60*time.Second)
	setDefault(k, "websocket.send_buffer", 64)
	setDefault(k, "websocket.max_message_bytes", 64*1024)

	setDefault(k, "security.bcrypt_cost", credentials.DefaultCost)
	setDefault(k, "rooms.cleanup_delay", time.Hour)

	// Logger defaults
	setDefault(k, "logger.encoding", "json")
	setDefault(k, "logger.level", "info")
	setDefault(k, "logger.logger", "zap")

	// Tracing defaults
	setDefault(k, "tracing.enabled", false)
	setDefault(k, "tracing.exporter", "otlp")
	setDefault(k, "tracing.endpoint", "http://localhost:4318/v1/traces")
	setDefault(k, "tracing.service_name", "huddle-api")
	setDefault(k, "tracing.environment", "development")

	// Events defaults
	setDefault(k, "events.exchange", "huddle")
	setDefault(k, "events.queue_size", 256)
}

func applyEnvOverrides(k *koanf.Koanf) {
	// HTTP config from env
	if host := env.GetString("HTTP_HOST", ""); host != "" {
		k.Set("http.host", host)
	}
	if port := env.GetInt("PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if port := env.GetInt("HTTP_PORT", 0); port > 0 {
		k.Set("http.port", port)
	}
	if origins := env.GetStrings("CORS_ORIGIN", nil); len(origins) > 0 {
		k.Set("http.allowed_origins", origins)
	}
	if readTimeout := env.GetInt("HTTP_READ_TIMEOUT_SECONDS", 0); readTimeout > 0 {
		k.Set("http.read_timeout", time.Duration(readTimeout)*time.Second)
	}
	if writeTimeout := env.GetInt("HTTP_WRITE_TIMEOUT_SECONDS", 0); writeTimeout > 0 {
		k.Set("http.write_timeout", time.Duration(writeTimeout)*time.Second)
	}

	// Security and rooms
	if cost := env.GetInt("BCRYPT_SALT_ROUNDS", 0); cost > 0 {
		k.Set("security.bcrypt_cost", cost)
	}
	if delay := env.GetInt("ROOM_CLEANUP_DELAY_SECONDS", 0); delay > 0 {
		k.Set("rooms.cleanup_delay", time.Duration(delay)*time.Second)
	}

	// Logger config from env
	if path := env.GetString("LOGGER_FILE_PATH", ""); path != "" {
		k.Set("logger.file_path", path)
	}
	if encoding := env.GetString("LOGGER_ENCODING", ""); encoding != "" {
		k.Set("logger.encoding", encoding)
	}
	if level := env.GetString("LOGGER_LEVEL", ""); level != "" {
		k.Set("logger.level", level)
	}
	if logger := env.GetString("LOGGER_LOGGER", ""); logger != "" {
		k.Set("logger.logger", logger)
	}

	// Tracing config from env
	if enabled := env.GetString("TRACING_ENABLED", ""); enabled != "" {
		k.Set("tracing.enabled", env.GetBool("TRACING_ENABLED", false))
	}
	if exporter := env.GetString("TRACING_EXPORTER", ""); exporter != "" {
		k.Set("tracing.exporter", exporter)
	}
	if endpoint := env.GetString("TRACING_ENDPOINT", ""); endpoint != "" {
		k.Set("tracing.endpoint", endpoint)
	}
	if environment := env.GetString("ENVIRONMENT", ""); environment != "" {
		k.Set("tracing.environment", environment)
	}

	// Events config from env
	if uri := env.GetString("RABBITMQ_URI", ""); uri != "" {
		k.Set("events.rabbitmq_uri", uri)
	}
	if exchange := env.GetString("EVENTS_EXCHANGE", ""); exchange != "" {
		k.Set("events.exchange", exchange)
	}
}

// setDefault only sets the value if the key doesn't already exist
func setDefault(k *koanf.Koanf, key string, value interface{}) {
	if !k.Exists(key) {
		k.Set(key, value)
	}
}
