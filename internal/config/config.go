package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. DEENBOT_SERVER_LISTEN.
const EnvPrefix = "DEENBOT"

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	LLM      LLMConfig      `mapstructure:"llm"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Listen      string        `mapstructure:"listen"`
	UploadDir   string        `mapstructure:"upload_dir"`
	BodyLimit   int           `mapstructure:"body_limit"`
	Concurrency int           `mapstructure:"concurrency"`
	MaxInflight int64         `mapstructure:"max_inflight"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
}

type DatabaseConfig struct {
	DSN string `mapstructure:"dsn"`
}

// LLMConfig points at an OpenAI compatible backend (LM Studio, Ollama, OpenAI).
type LLMConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKey     string        `mapstructure:"api_key"`
	EmbedModel string        `mapstructure:"embed_model"`
	ChatModel  string        `mapstructure:"chat_model"`
	TopK       int           `mapstructure:"top_k"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Required  bool   `mapstructure:"required"`
}

type LogConfig struct {
	Debug  bool `mapstructure:"debug"`
	JSON   bool `mapstructure:"json"`
	Pretty bool `mapstructure:"pretty"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:      ":8006",
			UploadDir:   "uploads",
			BodyLimit:   1024 * 1024 * 1024,
			Concurrency: 10,
			MaxInflight: 10,
			IdleTimeout: 120 * time.Second,
			CORSOrigins: DevOrigins(),
		},
		Database: DatabaseConfig{
			DSN: "host=localhost port=5432 user=postgres password=postgres dbname=deenbot sslmode=disable",
		},
		LLM: LLMConfig{
			BaseURL:    "http://localhost:1234/v1",
			APIKey:     "not-needed",
			EmbedModel: "text-embedding-nomic-embed-text-v1.5",
			ChatModel:  "google/gemma-3n-e4b",
			TopK:       5,
			Timeout:    5 * time.Minute,
		},
		Log: LogConfig{
			Pretty: true,
		},
	}
}

// DevOrigins is the allow-list used by the frontend dev servers, followed by
// the wildcard.
func DevOrigins() []string {
	hosts := []string{"localhost", "127.0.0.1", "192.168.56.1", "192.168.184.25", "192.168.100.63"}
	ports := []string{"8080", "8081", "8082", "5173"}

	origins := make([]string, 0, len(hosts)*len(ports)+1)
	for _, h := range hosts {
		for _, p := range ports {
			origins = append(origins, fmt.Sprintf("http://%s:%s", h, p))
		}
	}
	return append(origins, "*")
}

// Load reads configuration with the following precedence (highest first):
// environment variables (including those from a .env file), config.toml in
// configDir, defaults.
func Load(configDir string) (*Config, error) {
	v, err := newViper(configDir)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

func newViper(configDir string) (*viper.Viper, error) {
	// a missing .env is the normal case outside local development
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.upload_dir", d.Server.UploadDir)
	v.SetDefault("server.body_limit", d.Server.BodyLimit)
	v.SetDefault("server.concurrency", d.Server.Concurrency)
	v.SetDefault("server.max_inflight", d.Server.MaxInflight)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	v.SetDefault("database.dsn", d.Database.DSN)

	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.embed_model", d.LLM.EmbedModel)
	v.SetDefault("llm.chat_model", d.LLM.ChatModel)
	v.SetDefault("llm.top_k", d.LLM.TopK)
	v.SetDefault("llm.timeout", d.LLM.Timeout)

	v.SetDefault("auth.jwt_secret", d.Auth.JWTSecret)
	v.SetDefault("auth.required", d.Auth.Required)

	v.SetDefault("log.debug", d.Log.Debug)
	v.SetDefault("log.json", d.Log.JSON)
	v.SetDefault("log.pretty", d.Log.Pretty)
}
