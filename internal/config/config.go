package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // あれば最優先
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string

	JWTSecret      string        // JWT署名シークレット
	AccessTokenTTL time.Duration // アクセストークンの有効期限

	StoreTimeout        time.Duration // DB呼び出し1回あたりの上限
	CheckoutCASAttempts int           // 在庫CASの再試行回数

	LogLevel string

	KafkaBrokers      string // カンマ区切り。空なら無効
	KafkaCatalogTopic string

	Location *time.Location // 日次集計の日付境界

	SeedAdminPassword   string
	SeedCashierPassword string
}

// Loadは環境変数
func Load() (Config, error) {
	pgPort, err := intOr("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	storeTimeout, err := durationOr("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return Config{}, err
	}
	tokenTTL, err := durationOr("ACCESS_TOKEN_TTL", 12*time.Hour)
	if err != nil {
		return Config{}, err
	}
	casAttempts, err := intOr("CHECKOUT_CAS_ATTEMPTS", 3)
	if err != nil {
		return Config{}, err
	}

	loc := time.Local
	if tz := os.Getenv("TIMEZONE"); tz != "" {
		loc, err = time.LoadLocation(tz)
		if err != nil {
			return Config{}, fmt.Errorf("TIMEZONE is invalid: %w", err)
		}
	}

	cfg := Config{
		Port: os.Getenv("PORT"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresPort:     pgPort,
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret:      os.Getenv("JWT_SECRET"),
		AccessTokenTTL: tokenTTL,

		StoreTimeout:        storeTimeout,
		CheckoutCASAttempts: casAttempts,

		LogLevel: strings.ToLower(getenv("LOG_LEVEL", "info")),

		KafkaBrokers:      os.Getenv("KAFKA_BROKERS"),
		KafkaCatalogTopic: getenv("KAFKA_CATALOG_TOPIC", "pos.catalog"),

		Location: loc,

		SeedAdminPassword:   os.Getenv("SEED_ADMIN_PASSWORD"),
		SeedCashierPassword: os.Getenv("SEED_CASHIER_PASSWORD"),
	}

	//必須チェック
	if cfg.Port == "" {
		return Config{}, fmt.Errorf("PORT is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
	}
	if cfg.StoreTimeout <= 0 {
		return Config{}, fmt.Errorf("STORE_TIMEOUT must be positive")
	}
	if cfg.CheckoutCASAttempts < 1 {
		return Config{}, fmt.Errorf("CHECKOUT_CAS_ATTEMPTS must be >= 1")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "off":
	default:
		return Config{}, fmt.Errorf("LOG_LEVEL must be one of debug/info/warn/error/off")
	}

	return cfg, nil
}

// Addrは ":8080" 形式
func (c Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

// DSNはgorm(postgres)用の接続文字列
func (c Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode,
	)
}

// Kafkaのブローカー一覧
func (c Config) KafkaBrokerList() []string {
	brokers := []string{}
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func intOr(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func durationOr(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be duration: %w", key, err)
	}
	return d, nil
}
