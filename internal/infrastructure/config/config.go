package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	LLM         LLMConfig       `mapstructure:"llm"`
	Database    DatabaseConfig  `mapstructure:"database"`
	Catalog     CatalogConfig   `mapstructure:"catalog"`
	Search      SearchConfig    `mapstructure:"search"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Queue       QueueConfig     `mapstructure:"queue"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"` // 0 表示不限
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// LLMConfig 模型服務設定（OpenAI 相容 chat/completions）
type LLMConfig struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	RouterModel string        `mapstructure:"router_model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"` // 0 表示不設客戶端逾時
	Referer     string        `mapstructure:"referer"`
	Title       string        `mapstructure:"title"`
}

// DatabaseConfig 資料庫設定
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	Path   string `mapstructure:"path"`   // sqlite 檔案路徑
	DSN    string `mapstructure:"dsn"`    // postgres 連線字串
}

// CatalogConfig 食譜擷取設定
type CatalogConfig struct {
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	UserAgent       string        `mapstructure:"user_agent"`
	MaxContentChars int           `mapstructure:"max_content_chars"`
}

// SearchConfig 食譜查詢設定
type SearchConfig struct {
	MinMatchThreshold float64 `mapstructure:"min_match_threshold"`
	MaxRecipes        int     `mapstructure:"max_recipes"`
	MaxSQLAttempts    int     `mapstructure:"max_sql_attempts"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Backend         string        `mapstructure:"backend"` // memory | redis
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// QueueConfig 模型呼叫隊列設定
type QueueConfig struct {
	Workers int `mapstructure:"workers"`
	MaxSize int `mapstructure:"max_size"`
}

// TracingConfig OpenTelemetry 設定
type TracingConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	PrettyPrint bool   `mapstructure:"pretty_print"`
}

// LoadConfig 載入設定（.env + 環境變數）
func LoadConfig() (*Config, error) {
	// .env 不存在時僅使用環境變數
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return Load(viper.New())
}

// Load 以指定的 viper 實例解析設定
func Load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.LLM.RouterModel == "" {
		config.LLM.RouterModel = config.LLM.Model
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// logger 尚未初始化，改用 fmt.Println
	fmt.Println("Loading configuration",
		"llm_api_key:", maskAPIKey(config.LLM.APIKey),
		"llm_model:", config.LLM.Model,
		"database:", config.Database.Driver,
	)

	return &config, nil
}

func bindEnv(v *viper.Viper) {
	_ = v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY", "OPENROUTER_API_KEY")
	_ = v.BindEnv("llm.base_url", "LLM_BASE_URL")
	_ = v.BindEnv("llm.model", "LLM_MODEL", "OPENAI_MODEL")
	_ = v.BindEnv("llm.router_model", "ROUTER_MODEL")
	_ = v.BindEnv("llm.max_tokens", "MODEL_MAX_TOKENS")
	_ = v.BindEnv("llm.timeout", "LLM_TIMEOUT")
	_ = v.BindEnv("database.driver", "DB_DRIVER")
	_ = v.BindEnv("database.path", "DB_PATH")
	_ = v.BindEnv("database.dsn", "DATABASE_URL")
	_ = v.BindEnv("catalog.request_timeout", "REQUEST_TIMEOUT")
	_ = v.BindEnv("catalog.user_agent", "USER_AGENT")
	_ = v.BindEnv("search.min_match_threshold", "MIN_MATCH_THRESHOLD")
	_ = v.BindEnv("search.max_recipes", "MAX_RECIPES_TO_RETURN")
	_ = v.BindEnv("search.max_sql_attempts", "MAX_SQL_ATTEMPTS")
	_ = v.BindEnv("cache.enabled", "CACHE_ENABLED")
	_ = v.BindEnv("cache.backend", "CACHE_BACKEND")
	_ = v.BindEnv("cache.redis_addr", "REDIS_ADDR")
	_ = v.BindEnv("cache.redis_password", "REDIS_PASSWORD")
	_ = v.BindEnv("queue.workers", "QUEUE_WORKERS")
	_ = v.BindEnv("queue.max_size", "QUEUE_MAX_SIZE")
	_ = v.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	_ = v.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	_ = v.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	_ = v.BindEnv("tracing.enabled", "OTEL_ENABLED")
	_ = v.BindEnv("dedup_window", "DEDUP_WINDOW")
	_ = v.BindEnv("log_level", "LOG_LEVEL")
	_ = v.BindEnv("server.port", "PORT")
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "chef-ai")

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "180s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "0s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("llm.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.router_model", "")
	v.SetDefault("llm.max_tokens", 2000)
	v.SetDefault("llm.timeout", "0s")
	v.SetDefault("llm.referer", "https://github.com/RyanJuricic26/chef-ai")
	v.SetDefault("llm.title", "Chef AI")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "database/app.db")
	v.SetDefault("database.dsn", "")

	v.SetDefault("catalog.request_timeout", "30s")
	v.SetDefault("catalog.user_agent", "Mozilla/5.0 (compatible; ChefAI-RecipeBot/1.0)")
	v.SetDefault("catalog.max_content_chars", 10000)

	v.SetDefault("search.min_match_threshold", 30.0)
	v.SetDefault("search.max_recipes", 5)
	v.SetDefault("search.max_sql_attempts", 3)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	v.SetDefault("queue.workers", 4)
	v.SetDefault("queue.max_size", 100)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "chef-ai")
	v.SetDefault("tracing.pretty_print", false)

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("log_level", "info")
}

func validateConfig(config *Config) error {
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	if strings.TrimSpace(config.LLM.APIKey) == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if config.LLM.Model == "" {
		return fmt.Errorf("llm model is required")
	}
	if config.LLM.Timeout < 0 {
		return fmt.Errorf("invalid llm timeout")
	}

	switch config.Database.Driver {
	case "sqlite":
		if config.Database.Path == "" {
			return fmt.Errorf("database path is required for sqlite")
		}
	case "postgres":
		if config.Database.DSN == "" {
			return fmt.Errorf("DATABASE_URL is required for postgres")
		}
	default:
		return fmt.Errorf("unsupported database driver: %q", config.Database.Driver)
	}

	if config.Catalog.RequestTimeout <= 0 {
		return fmt.Errorf("invalid catalog request timeout")
	}
	if config.Catalog.MaxContentChars <= 0 {
		return fmt.Errorf("invalid catalog max content chars")
	}

	if config.Search.MinMatchThreshold < 0 || config.Search.MinMatchThreshold > 100 {
		return fmt.Errorf("min match threshold must be between 0 and 100")
	}
	if config.Search.MaxRecipes <= 0 {
		return fmt.Errorf("invalid max recipes")
	}
	if config.Search.MaxSQLAttempts <= 0 {
		return fmt.Errorf("invalid max sql attempts")
	}

	if config.Queue.Workers <= 0 {
		return fmt.Errorf("invalid queue workers")
	}
	if config.Queue.MaxSize <= 0 {
		return fmt.Errorf("invalid queue max size")
	}

	if config.Cache.Enabled {
		switch config.Cache.Backend {
		case "memory":
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case "redis":
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("REDIS_ADDR is required for redis cache")
			}
		default:
			return fmt.Errorf("unsupported cache backend: %q", config.Cache.Backend)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit settings")
		}
	}

	return nil
}
