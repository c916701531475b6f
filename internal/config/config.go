// Package config は環境変数からアプリケーション設定を読み込む。
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultDatabaseURL はストア接続先が未設定の場合に使用する接続先。
const DefaultDatabaseURL = "mongodb://localhost/hostel-allocation"

// DefaultServerPort はPORTが未設定の場合の待ち受けポート。
const DefaultServerPort = "3000"

// StoreKind はストアのバックエンド種別。
type StoreKind string

const (
	StoreMongo    StoreKind = "mongo"
	StorePostgres StoreKind = "postgres"
	StoreMemory   StoreKind = "memory"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	DatabaseURL  string
	Store        StoreKind
	StoreTimeout time.Duration

	// Server
	ServerPort string
	AppEnv     string
	StaticDir  string

	// CORS
	CORSAllowedOrigin string

	// Rate Limit (req/min)
	RateLimitGeneral int
	RateLimitVote    int

	// Logging
	LogFormat string
	LogLevel  string

	// Seed
	SeedFriends string
}

// IsProduction は本番モードで起動しているかを返す。
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load は環境変数とカレントディレクトリの.envからConfigを読み込む。
func Load() (*Config, error) {
	return LoadWithDotEnv(".env")
}

// LoadWithDotEnv は環境変数と指定された.envファイルからConfigを読み込む。
// 同じキーが両方にある場合は環境変数を優先する。ファイルが存在しない場合は無視する。
func LoadWithDotEnv(path string) (*Config, error) {
	env, err := newSource(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	// DATABASE_URL が MONGODB_URI より優先
	cfg.DatabaseURL = env.getString("DATABASE_URL", env.getString("MONGODB_URI", DefaultDatabaseURL))
	store, err := DetectStore(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	cfg.Store = store

	cfg.StoreTimeout = env.getDuration("STORE_TIMEOUT", 5*time.Second)
	cfg.ServerPort = env.getString("PORT", DefaultServerPort)
	cfg.AppEnv = env.getString("APP_ENV", env.getString("NODE_ENV", "development"))
	cfg.StaticDir = env.getString("STATIC_DIR", "build")
	cfg.CORSAllowedOrigin = env.getString("CORS_ALLOWED_ORIGIN", "*")
	cfg.RateLimitGeneral = env.getInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitVote = env.getInt("RATE_LIMIT_VOTE", 10)
	cfg.LogFormat = strings.ToLower(env.getString("LOG_FORMAT", "json"))
	cfg.LogLevel = strings.ToLower(env.getString("LOG_LEVEL", "info"))
	cfg.SeedFriends = env.getString("SEED_FRIENDS", "")

	if cfg.RateLimitGeneral <= 0 || cfg.RateLimitVote <= 0 {
		return nil, fmt.Errorf("rate limits must be positive: general=%d vote=%d", cfg.RateLimitGeneral, cfg.RateLimitVote)
	}

	return cfg, nil
}

// ServerPortWithDotEnv は環境変数と指定された.envファイルからPORTのみを読み込む。
// ストア設定を検証しないため、healthcheckのような軽量サブコマンドで使う。
func ServerPortWithDotEnv(path string) (string, error) {
	env, err := newSource(path)
	if err != nil {
		return "", err
	}
	return env.getString("PORT", DefaultServerPort), nil
}

// DetectStore は接続URLのスキームからストア種別を判定する。
func DetectStore(databaseURL string) (StoreKind, error) {
	scheme, _, ok := strings.Cut(databaseURL, "://")
	if !ok {
		return "", fmt.Errorf("invalid store url: missing scheme")
	}

	switch strings.ToLower(scheme) {
	case "mongodb", "mongodb+srv":
		return StoreMongo, nil
	case "postgres", "postgresql":
		return StorePostgres, nil
	case "memory":
		return StoreMemory, nil
	default:
		return "", fmt.Errorf("unsupported store scheme: %q", scheme)
	}
}

// source は環境変数と.envの値を優先順位付きで参照する。
type source struct {
	dotenv map[string]string
}

// newSource はpathの.envを読み込んだsourceを返す。pathが空かファイルがない場合は環境変数のみ。
func newSource(path string) (source, error) {
	if path == "" {
		return source{}, nil
	}
	m, err := godotenv.Read(path)
	switch {
	case err == nil:
		return source{dotenv: m}, nil
	case errors.Is(err, fs.ErrNotExist):
		return source{}, nil
	default:
		return source{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
}

func (s source) lookup(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return s.dotenv[key]
}

func (s source) getString(key, defaultVal string) string {
	if v := s.lookup(key); v != "" {
		return v
	}
	return defaultVal
}

func (s source) getInt(key string, defaultVal int) int {
	v := s.lookup(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func (s source) getDuration(key string, defaultVal time.Duration) time.Duration {
	v := s.lookup(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
