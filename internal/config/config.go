package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	DefaultPort            = 3000
	DefaultSweepInterval   = 30 * time.Minute
	DefaultMaxFileAge      = time.Hour
	DefaultBodyLimitBytes  = 50 << 20
	DefaultRatePerMinute   = 0 // disabled unless RATE_LIMIT_PER_MINUTE is set
	DefaultChatModel       = "gpt-4o-mini"
	DefaultTranscribeModel = "whisper-1"
)

// Config is the process-wide configuration. It is built once at startup and
// handed to each component explicitly.
type Config struct {
	Port int

	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIAllowedHosts    []string
	OpenAIChatModel       string
	OpenAITranscribeModel string

	YtDlpPath  string
	FFmpegPath string

	TempDir      string
	DownloadsDir string
	PublicDir    string

	SweepInterval time.Duration
	MaxFileAge    time.Duration

	BodyLimitBytes     int64
	RateLimitPerMinute int

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from the environment.
func Load() Config {
	return Config{
		Port: ParseInt("PORT", DefaultPort),

		OpenAIAPIKey:          ParseString("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         ParseString("OPENAI_BASE_URL", defaultBaseURL),
		OpenAIAllowedHosts:    ParseList("OPENAI_ALLOWED_HOSTS"),
		OpenAIChatModel:       ParseString("OPENAI_CHAT_MODEL", DefaultChatModel),
		OpenAITranscribeModel: ParseString("OPENAI_TRANSCRIBE_MODEL", DefaultTranscribeModel),

		YtDlpPath:  ParseString("YTDLP_PATH", "yt-dlp"),
		FFmpegPath: ParseString("FFMPEG_PATH", "ffmpeg"),

		TempDir:      ParseString("TEMP_DIR", "temp"),
		DownloadsDir: ParseString("DOWNLOADS_DIR", "downloads"),
		PublicDir:    ParseString("PUBLIC_DIR", "public"),

		SweepInterval: ParseDuration("SWEEP_INTERVAL", DefaultSweepInterval),
		MaxFileAge:    ParseDuration("MAX_FILE_AGE", DefaultMaxFileAge),

		BodyLimitBytes:     DefaultBodyLimitBytes,
		RateLimitPerMinute: ParseInt("RATE_LIMIT_PER_MINUTE", DefaultRatePerMinute),

		LogLevel:  ParseString("LOG_LEVEL", "info"),
		LogFormat: ParseString("LOG_FORMAT", "console"),
	}
}

// AIEnabled reports whether the transcription/completion credential is set.
func (c Config) AIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be in 1..65535, got %d", c.Port)
	}
	if c.TempDir == "" || c.DownloadsDir == "" {
		return errors.New("working directories must not be empty")
	}
	if c.TempDir == c.DownloadsDir {
		return errors.New("temp and downloads directories must differ")
	}
	if c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be > 0")
	}
	if c.MaxFileAge <= 0 {
		return fmt.Errorf("max file age must be > 0")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("rate limit must be >= 0")
	}
	if !c.AIEnabled() {
		return nil
	}
	return ValidateBaseURL(c.OpenAIBaseURL, c.OpenAIAllowedHosts)
}
