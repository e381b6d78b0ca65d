package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Redis       RedisConfig
	Rules       RulesConfig       `mapstructure:"rules"`
	Leaderboard LeaderboardConfig `mapstructure:"leaderboard"`
	Storage     StorageConfig
	Tracing     TracingConfig   `mapstructure:"tracing"`
	CORS        CORSConfig      `mapstructure:"cors"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	MigrateOnly bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type ServerConfig struct {
	Port string
	Mode string
	// 请求级超时，所有加锁事务的等待上限
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

type DatabaseConfig struct {
	Driver    string // mysql | sqlite
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
	// 启动时自动建表，-migrate 命令行参数强制打开
	AutoMigrate bool `mapstructure:"auto_migrate"`
	// sqlite 专用：数据文件路径，":memory:" 用于测试
	Path string
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// RulesConfig 积分规则表。支持热更新（pkg/configwatcher），
// 计算器持有快照，规则变更不影响进行中的事务。
type RulesConfig struct {
	PointsPerVisit          int     `mapstructure:"points_per_visit"`
	PointsPerClass          int     `mapstructure:"points_per_class"`
	PointsPerReferral       int     `mapstructure:"points_per_referral"`
	OffPeakStart            int     `mapstructure:"off_peak_start"`
	OffPeakEnd              int     `mapstructure:"off_peak_end"`
	OffPeakMultiplier       float64 `mapstructure:"off_peak_multiplier"`
	PremiumClassMultiplier  float64 `mapstructure:"premium_class_multiplier"`
	PremiumMemberMultiplier float64 `mapstructure:"premium_member_multiplier"`
	StreakBonusMultiplier   float64 `mapstructure:"streak_bonus_multiplier"`
	MinimumStreakDays       int     `mapstructure:"minimum_streak_days"`
}

type LeaderboardConfig struct {
	Mode                      string `mapstructure:"mode"` // eager | lazy
	StalenessToleranceSeconds int    `mapstructure:"staleness_tolerance_seconds"`
	PageSize                  int    `mapstructure:"page_size"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"` // local | minio
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	MinioUseSSL   bool   `mapstructure:"minio_use_ssl"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// DefaultRules 原始业务的默认规则表，配置缺省时生效
func DefaultRules() RulesConfig {
	return RulesConfig{
		PointsPerVisit:          10,
		PointsPerClass:          20,
		PointsPerReferral:       50,
		OffPeakStart:            10,
		OffPeakEnd:              16,
		OffPeakMultiplier:       1.5,
		PremiumClassMultiplier:  1.5,
		PremiumMemberMultiplier: 1.2,
		StreakBonusMultiplier:   1.5,
		MinimumStreakDays:       3,
	}
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("MKWA")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.driver", "DATABASE_DRIVER")
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Storage / Minio
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	applyDefaults(&cfg)

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if err := validateRules(cfg.Rules); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.RequestTimeoutSeconds <= 0 {
		cfg.Server.RequestTimeoutSeconds = 10
	}
	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "mysql"
	}
	if cfg.Rules == (RulesConfig{}) {
		cfg.Rules = DefaultRules()
	}
	if cfg.Leaderboard.Mode == "" {
		cfg.Leaderboard.Mode = "lazy"
	}
	if cfg.Leaderboard.StalenessToleranceSeconds <= 0 {
		cfg.Leaderboard.StalenessToleranceSeconds = 60
	}
	if cfg.Leaderboard.PageSize <= 0 {
		cfg.Leaderboard.PageSize = 50
	}
}

func validateRules(r RulesConfig) error {
	if r.MinimumStreakDays < 1 {
		return fmt.Errorf("rules.minimum_streak_days must be >= 1, got %d", r.MinimumStreakDays)
	}
	if r.PointsPerVisit < 0 || r.PointsPerClass < 0 || r.PointsPerReferral < 0 {
		return fmt.Errorf("rules base points must not be negative")
	}
	if r.OffPeakStart < 0 || r.OffPeakStart > 23 || r.OffPeakEnd < 0 || r.OffPeakEnd > 23 {
		return fmt.Errorf("rules off-peak window hours must be within 0-23")
	}
	return nil
}
