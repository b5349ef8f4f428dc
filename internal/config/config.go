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

// レコードストアの種類
const (
	StoreDynamoDB = "dynamodb"
	StorePostgres = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Store
	StoreBackend     string
	AWSRegion        string
	DynamoDBEndpoint string
	TasksTable       string
	UsersTable       string
	TeamsTable       string
	DatabaseURL      string

	// Auth
	JWKSURL     string
	JWTSecret   string
	Issuer      string
	Audience    string
	GroupsClaim string
	AdminGroup  string

	// Cache
	RedisURL       string
	MemberCacheTTL time.Duration

	// Rate Limit（1分あたりのリクエスト数）
	RateLimitGeneral int
	RateLimitWrite   int

	// Server
	ServerPort string

	// CORS
	CORSAllowedOrigin string

	// Logging
	LogLevel string
}

// LoadDotEnv は.envファイルが存在すれば環境変数として読み込む。
// 既に設定されている環境変数は上書きしない。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to stat %s: %w", p, err)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合や値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.StoreBackend = strings.ToLower(getEnvString("STORE_BACKEND", StoreDynamoDB))
	cfg.AWSRegion = getEnvString("AWS_REGION", "eu-west-1")
	cfg.DynamoDBEndpoint = os.Getenv("DYNAMODB_ENDPOINT")
	cfg.TasksTable = getEnvString("TASKS_TABLE", "Tasks")
	cfg.UsersTable = getEnvString("USERS_TABLE", "Users")
	cfg.TeamsTable = getEnvString("TEAMS_TABLE", "Teams")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")

	cfg.JWKSURL = os.Getenv("AUTH_JWKS_URL")
	cfg.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	cfg.Issuer = os.Getenv("AUTH_ISSUER")
	cfg.Audience = os.Getenv("AUTH_AUDIENCE")
	cfg.GroupsClaim = getEnvString("AUTH_GROUPS_CLAIM", "cognito:groups")
	cfg.AdminGroup = getEnvString("ADMIN_GROUP", "admin")

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.MemberCacheTTL = getEnvDuration("MEMBER_CACHE_TTL", time.Minute)

	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitWrite = getEnvInt("RATE_LIMIT_WRITE", 30)

	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CORSAllowedOrigin = getEnvString("CORS_ALLOWED_ORIGIN", "*")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var missing []string

	switch c.StoreBackend {
	case StoreDynamoDB:
	case StorePostgres:
		if c.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		return fmt.Errorf("unsupported STORE_BACKEND %q (want %s or %s)", c.StoreBackend, StoreDynamoDB, StorePostgres)
	}

	if c.JWKSURL == "" && c.JWTSecret == "" {
		missing = append(missing, "AUTH_JWKS_URL or AUTH_JWT_SECRET")
	}

	if len(missing) > 0 {
		return fmt.Errorf("required environment variables are not set: %v", missing)
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
