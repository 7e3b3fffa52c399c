package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	DefaultAPIEndpoint = "https://youtube.googleapis.com/youtube/v3/"
	DefaultWatchHost   = "www.youtube.com"
	DefaultSearchFile  = "./files/URLfile.json"
)

type Config struct {
	// Search provider
	APIKey        string
	APIEndpoint   string
	WatchHost     string
	SearchTimeout time.Duration

	// Pipeline outputs
	SearchOutputPath  string
	ConvertOutputPath string
	AudioDir          string
	AudioFormat       string

	// External media tools
	FFmpegPath     string
	YtDlpPath      string
	ConvertTimeout time.Duration

	// History ledger, empty disables it
	DBPath string

	LogDir   string
	LogLevel string

	// API server
	ServerPort        string
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	RateLimit         int
	RateLimitInterval time.Duration

	Spaces SpacesConfig
}

// SpacesConfig configures the optional S3-compatible bucket that results are
// published to. Publishing is off while Bucket is empty.
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	Bucket    string
	Prefix    string
}

func (s SpacesConfig) Enabled() bool {
	return s.Bucket != ""
}

// LoadConfig reads an optional .env file and then the process environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	return &Config{
		APIKey:        GetEnv("YT_API_KEY", GetEnv("yt_key", "")),
		APIEndpoint:   GetEnv("YT_API_ENDPOINT", DefaultAPIEndpoint),
		WatchHost:     GetEnv("YT_WATCH_HOST", DefaultWatchHost),
		SearchTimeout: getEnvAsDuration("SEARCH_TIMEOUT", 15*time.Second),

		SearchOutputPath:  GetEnv("SEARCH_OUTPUT_PATH", DefaultSearchFile),
		ConvertOutputPath: GetEnv("CONVERT_OUTPUT_PATH", ""),
		AudioDir:          GetEnv("AUDIO_DIR", "./files/audio"),
		AudioFormat:       strings.TrimPrefix(GetEnv("AUDIO_FORMAT", "mp3"), "."),

		FFmpegPath:     GetEnv("FFMPEG_PATH", "ffmpeg"),
		YtDlpPath:      GetEnv("YTDLP_PATH", "yt-dlp"),
		ConvertTimeout: getEnvAsDuration("CONVERT_TIMEOUT", 10*time.Minute),

		DBPath: GetEnv("DB_PATH", "./data/history.db"),

		LogDir:   GetEnv("LOG_DIR", ""),
		LogLevel: GetEnv("LOG_LEVEL", "info"),

		ServerPort:        GetEnv("SERVER_PORT", "8080"),
		ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
		WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 15*time.Minute),
		IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		RateLimit:         getEnvAsInt("RATE_LIMIT", 5),
		RateLimitInterval: getEnvAsDuration("RATE_LIMIT_INTERVAL", 1*time.Second),

		Spaces: SpacesConfig{
			AccessKey: GetEnv("SPACES_ACCESS_KEY", ""),
			SecretKey: GetEnv("SPACES_SECRET_KEY", ""),
			Region:    GetEnv("SPACES_REGION", "us-east-1"),
			Endpoint:  GetEnv("SPACES_ENDPOINT", ""),
			Bucket:    GetEnv("SPACES_BUCKET", ""),
			Prefix:    GetEnv("SPACES_PREFIX", "synapse"),
		},
	}
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func ValidateConfig(cfg *Config) error {
	if cfg.APIEndpoint == "" {
		return errors.New("YouTube API endpoint is required")
	}
	if cfg.WatchHost == "" {
		return errors.New("watch host is required")
	}
	if cfg.SearchOutputPath == "" {
		return errors.New("search output path is required")
	}
	if cfg.AudioDir == "" {
		return errors.New("audio directory is required")
	}
	if cfg.AudioFormat == "" {
		return errors.New("audio format is required")
	}
	if cfg.SearchTimeout <= 0 {
		return errors.New("search timeout must be greater than 0")
	}
	if cfg.ConvertTimeout <= 0 {
		return errors.New("convert timeout must be greater than 0")
	}
	if cfg.RateLimit <= 0 {
		return errors.New("rate limit must be greater than 0")
	}
	if cfg.RateLimitInterval <= 0 {
		return errors.New("rate limit interval must be greater than 0")
	}
	if cfg.Spaces.Enabled() && (cfg.Spaces.AccessKey == "" || cfg.Spaces.SecretKey == "") {
		return errors.New("spaces credentials are required when a bucket is set")
	}
	return nil
}

// RequireAPIKey fails when no provider key is configured. Callers check it
// before any search call.
func (c *Config) RequireAPIKey() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return errors.New("YT_API_KEY is not set")
	}
	return nil
}
