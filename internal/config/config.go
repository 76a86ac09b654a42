package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tm-acme-shop/acme-shop-checkout-service/internal/logging"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Kafka       KafkaConfig
	CartService ServiceConfig
	Display     DisplayConfig
	Logging     LoggingConfig
	Features    FeatureFlags
}

type ServerConfig struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

func (d DatabaseConfig) ConnectionString() string {
	return "host=" + d.Host +
		" port=" + strconv.Itoa(d.Port) +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.Name +
		" sslmode=" + d.SSLMode
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type KafkaConfig struct {
	Brokers       []string
	CartTopic     string
	CheckoutTopic string
	ConsumerGroup string
}

type ServiceConfig struct {
	BaseURL string
	Timeout time.Duration
	APIKey  string
}

// DisplayConfig holds store display settings used when no settings
// database is configured.
type DisplayConfig struct {
	IncludeTaxInDisplayedPrice bool
	AdminURL                   string
}

type LoggingConfig struct {
	Level       string
	Development bool
}

type FeatureFlags struct {
	EnableCartEvents       bool
	EnableSettingsDatabase bool
	EnableRedisStore       bool
	EnableCartFallback     bool
}

// Load reads configuration from the environment and, when CHECKOUT_CONFIG_FILE
// is set, from that file. Environment values win over file values.
func Load() *Config {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("checkout_config_file"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			logging.NewLogger("config").Warn("Failed to read config file, using defaults and environment", logging.Fields{
				"path":  path,
				"error": err.Error(),
			})
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server_port", 8084)
	v.SetDefault("server_read_timeout", 30)
	v.SetDefault("server_write_timeout", 30)

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "acme")
	v.SetDefault("db_password", "acme")
	v.SetDefault("db_name", "acme_checkout")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 10)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_max_lifetime", 300)

	v.SetDefault("redis_host", "localhost")
	v.SetDefault("redis_port", 6379)
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_ttl", 1800)

	v.SetDefault("kafka_brokers", "localhost:9092")
	v.SetDefault("kafka_cart_topic", "cart-events")
	v.SetDefault("kafka_checkout_topic", "checkout-events")
	v.SetDefault("kafka_consumer_group", "checkout-service")

	v.SetDefault("cart_service_url", "http://localhost:8081")
	v.SetDefault("cart_service_timeout", 5)
	v.SetDefault("cart_service_api_key", "")

	v.SetDefault("display_cart_prices_including_tax", false)
	v.SetDefault("store_admin_url", "")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)

	v.SetDefault("feature_cart_events", true)
	v.SetDefault("feature_settings_database", true)
	v.SetDefault("feature_redis_store", true)
	v.SetDefault("feature_cart_fallback", false)
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port:         v.GetInt("server_port"),
			ReadTimeout:  time.Duration(v.GetInt("server_read_timeout")) * time.Second,
			WriteTimeout: time.Duration(v.GetInt("server_write_timeout")) * time.Second,
		},
		Database: DatabaseConfig{
			Host:         v.GetString("db_host"),
			Port:         v.GetInt("db_port"),
			User:         v.GetString("db_user"),
			Password:     v.GetString("db_password"),
			Name:         v.GetString("db_name"),
			SSLMode:      v.GetString("db_sslmode"),
			MaxOpenConns: v.GetInt("db_max_open_conns"),
			MaxIdleConns: v.GetInt("db_max_idle_conns"),
			MaxLifetime:  time.Duration(v.GetInt("db_max_lifetime")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("redis_host"),
			Port:     v.GetInt("redis_port"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
			TTL:      time.Duration(v.GetInt("redis_ttl")) * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:       splitList(v.GetString("kafka_brokers")),
			CartTopic:     v.GetString("kafka_cart_topic"),
			CheckoutTopic: v.GetString("kafka_checkout_topic"),
			ConsumerGroup: v.GetString("kafka_consumer_group"),
		},
		CartService: ServiceConfig{
			BaseURL: v.GetString("cart_service_url"),
			Timeout: time.Duration(v.GetInt("cart_service_timeout")) * time.Second,
			APIKey:  v.GetString("cart_service_api_key"),
		},
		Display: DisplayConfig{
			IncludeTaxInDisplayedPrice: v.GetBool("display_cart_prices_including_tax"),
			AdminURL:                   v.GetString("store_admin_url"),
		},
		Logging: LoggingConfig{
			Level:       v.GetString("log_level"),
			Development: v.GetBool("log_development"),
		},
		Features: FeatureFlags{
			EnableCartEvents:       v.GetBool("feature_cart_events"),
			EnableSettingsDatabase: v.GetBool("feature_settings_database"),
			EnableRedisStore:       v.GetBool("feature_redis_store"),
			EnableCartFallback:     v.GetBool("feature_cart_fallback"),
		},
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
