package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	DB        DBConfig        `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Quotes    QuotesConfig    `mapstructure:"quotes"`
	Generator GeneratorConfig `mapstructure:"generator"`
}

type AppConfig struct {
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
}

// IsProduction switches logging to plain JSON
func (a AppConfig) IsProduction() bool { return a.Env == "production" }

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret         string        `mapstructure:"jwt_secret"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
	APIKey            string        `mapstructure:"api_key"`
	APISecret         string        `mapstructure:"api_secret"`
	InternalAPIKey    string        `mapstructure:"internal_api_key"`
	InternalAPISecret string        `mapstructure:"internal_api_secret"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

// RedisConfig enables the shared snapshot tier when Addr is set
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig enables event publishing when Brokers is non-empty
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	TopicPrefix  string        `mapstructure:"topic_prefix"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

type QuotesConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Pacing       time.Duration `mapstructure:"pacing"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
	SnapshotFile string        `mapstructure:"snapshot_file"`
}

type GeneratorConfig struct {
	Seed      int64  `mapstructure:"seed"`
	OutputDir string `mapstructure:"output_dir"`
	Profile   string `mapstructure:"profile"`
}

// Load reads configuration from the YAML file at path, when path is set,
// overlaid with KLEAR_* environment variables. ENV and DEBUG are honoured
// as well.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("KLEAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("app.env", "KLEAR_APP_ENV", "ENV")
	_ = v.BindEnv("app.debug", "KLEAR_APP_DEBUG", "DEBUG")
	_ = v.BindEnv("server.port", "KLEAR_SERVER_PORT", "PORT")

	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("auth.jwt_secret", "klear-secret-key")
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.api_key", "test-api-key")
	v.SetDefault("auth.api_secret", "test-api-secret")
	v.SetDefault("auth.internal_api_key", "")
	v.SetDefault("auth.internal_api_secret", "")
	v.SetDefault("db.path", "klear-datagen.db")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic_prefix", "")
	v.SetDefault("kafka.batch_timeout", "50ms")
	v.SetDefault("quotes.base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("quotes.timeout", "10s")
	v.SetDefault("quotes.pacing", "200ms")
	v.SetDefault("quotes.cache_ttl", "5m")
	v.SetDefault("quotes.snapshot_file", "")
	v.SetDefault("generator.seed", 42)
	v.SetDefault("generator.output_dir", "testdata/generated")
	v.SetDefault("generator.profile", "default")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		return Config{}, fmt.Errorf("auth.jwt_secret must not be empty")
	}
	return cfg, nil
}
