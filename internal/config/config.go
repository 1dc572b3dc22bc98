package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration. It is loaded once at startup
// and treated as immutable afterwards.
type Config struct {
	Server  ServerConfig
	Log     LogConfig
	CORS    CORSConfig
	S3      S3Config
	Gemini  GeminiConfig
	Render  RenderConfig
	Analyze AnalyzeConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// S3Config holds the object storage settings for source PDFs.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
}

// GeminiConfig holds extraction model settings. APIKey is only a fallback;
// requests normally carry their own key.
type GeminiConfig struct {
	APIKey          string `mapstructure:"api_key"`
	Model           string `mapstructure:"model"`
	MaxOutputTokens int    `mapstructure:"max_output_tokens"`
	TimeoutSecs     int    `mapstructure:"timeout_secs"`
}

// RenderConfig holds rasterization settings.
type RenderConfig struct {
	DPI int `mapstructure:"dpi"`
}

// AnalyzeConfig holds full-document analysis settings.
type AnalyzeConfig struct {
	Concurrency      int `mapstructure:"concurrency"`
	MaxRetries       int `mapstructure:"max_retries"`
	RetryBackoffSecs int `mapstructure:"retry_backoff_secs"`
}

// Load reads configuration from environment variables with the SEIKIN_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SEIKIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	// Full-document analysis holds the response open for the whole page loop.
	v.SetDefault("server.write_timeout", "600s")
	v.SetDefault("server.environment", "development")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// S3 defaults
	v.SetDefault("s3.region", "ap-northeast-1")
	v.SetDefault("s3.bucket", "seikin-reports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 100)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", "gemini-3-pro-preview")
	v.SetDefault("gemini.max_output_tokens", 65536)
	v.SetDefault("gemini.timeout_secs", 120)

	// Render defaults
	v.SetDefault("render.dpi", 300)

	// Analyze defaults
	v.SetDefault("analyze.concurrency", 4)
	v.SetDefault("analyze.max_retries", 2)
	v.SetDefault("analyze.retry_backoff_secs", 2)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                "SEIKIN_SERVER_PORT",
		"server.read_timeout":        "SEIKIN_SERVER_READ_TIMEOUT",
		"server.write_timeout":       "SEIKIN_SERVER_WRITE_TIMEOUT",
		"server.environment":         "SEIKIN_SERVER_ENVIRONMENT",
		"log.level":                  "SEIKIN_LOG_LEVEL",
		"log.format":                 "SEIKIN_LOG_FORMAT",
		"cors.allowed_origins":       "SEIKIN_CORS_ALLOWED_ORIGINS",
		"s3.region":                  "SEIKIN_S3_REGION",
		"s3.bucket":                  "SEIKIN_S3_BUCKET",
		"s3.endpoint":                "SEIKIN_S3_ENDPOINT",
		"s3.access_key":              "SEIKIN_S3_ACCESS_KEY",
		"s3.secret_key":              "SEIKIN_S3_SECRET_KEY",
		"s3.max_file_size_mb":        "SEIKIN_S3_MAX_FILE_SIZE_MB",
		"gemini.api_key":             "SEIKIN_GEMINI_API_KEY",
		"gemini.model":               "SEIKIN_GEMINI_MODEL",
		"gemini.max_output_tokens":   "SEIKIN_GEMINI_MAX_OUTPUT_TOKENS",
		"gemini.timeout_secs":        "SEIKIN_GEMINI_TIMEOUT_SECS",
		"render.dpi":                 "SEIKIN_RENDER_DPI",
		"analyze.concurrency":        "SEIKIN_ANALYZE_CONCURRENCY",
		"analyze.max_retries":        "SEIKIN_ANALYZE_MAX_RETRIES",
		"analyze.retry_backoff_secs": "SEIKIN_ANALYZE_RETRY_BACKOFF_SECS",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Cloud Run/Railway set a PORT env var. Use it if SEIKIN_SERVER_PORT is
	// not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("SEIKIN_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}

	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
	}
	cfg.Gemini = GeminiConfig{
		APIKey:          v.GetString("gemini.api_key"),
		Model:           v.GetString("gemini.model"),
		MaxOutputTokens: v.GetInt("gemini.max_output_tokens"),
		TimeoutSecs:     v.GetInt("gemini.timeout_secs"),
	}
	cfg.Render = RenderConfig{
		DPI: v.GetInt("render.dpi"),
	}
	cfg.Analyze = AnalyzeConfig{
		Concurrency:      v.GetInt("analyze.concurrency"),
		MaxRetries:       v.GetInt("analyze.max_retries"),
		RetryBackoffSecs: v.GetInt("analyze.retry_backoff_secs"),
	}

	return cfg, nil
}
