package main

import "time"

type Config struct {
	Host           string        `env:"HOST,default=localhost"`
	Port           int           `env:"PORT,default=8080"`
	LogLevel       string        `env:"LOG_LEVEL,default=info"`
	BadgerFilepath string        `env:"BADGER_FILEPATH,required=true"`
	JWTSecret      string        `env:"JWT_SECRET,required=true"`
	TokenDuration  time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`

	HistoryPageSize      int           `env:"HISTORY_PAGE_SIZE,default=20"`
	DirectoryLimit       int           `env:"DIRECTORY_LIMIT,default=50"`
	RateLimitMax         int           `env:"RATE_LIMIT_MAX,default=30"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW,default=60s"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`

	UploadDir     string `env:"UPLOAD_DIR,default=uploads"`
	MaxUploadSize int64  `env:"MAX_UPLOAD_SIZE,default=5242880"`

	// Path to a newline-separated censored words file. Empty disables
	// moderation.
	CensoredWordsPath string `env:"CENSORED_WORDS_PATH"`
	CensoredChar      string `env:"CENSORED_CHARACTER,default=*"`

	RestartInterval     time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	BadgerGCInterval    time.Duration `env:"BADGER_GC_INTERVAL,default=5m"`
	RatePurgeInterval   time.Duration `env:"RATE_LIMIT_PURGE_INTERVAL,default=1m"`
	HTTPShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT,default=5s"`
}
