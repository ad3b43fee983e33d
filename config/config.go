package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

type Config struct {
	Environment string         `json:"environment"`
	Database    DatabaseConfig `json:"database"`
	Redis       RedisConfig    `json:"redis"`
	Server      ServerConfig   `json:"server"`
	Cache       CacheConfig    `json:"cache"`
	Seckill     SeckillConfig  `json:"seckill"`
	Security    SecurityConfig `json:"security"`
}

type DatabaseConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	User         string        `json:"user"`
	Password     string        `json:"password"`
	DBName       string        `json:"dbname"`
	SSLMode      string        `json:"sslmode"`
	MaxOpenConns int           `json:"max_open_conns"`
	MaxIdleConns int           `json:"max_idle_conns"`
	MaxLifetime  time.Duration `json:"max_lifetime"`
	MaxIdleTime  time.Duration `json:"max_idle_time"`
}

type RedisConfig struct {
	Host     string        `json:"host"`
	Port     int           `json:"port"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
	PoolSize int           `json:"pool_size"`
	MinIdle  int           `json:"min_idle"`
}

type ServerConfig struct {
	Port           string        `json:"port"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	WriteTimeout   time.Duration `json:"write_timeout"`
	IdleTimeout    time.Duration `json:"idle_timeout"`
	MaxHeaderBytes int           `json:"max_header_bytes"`
}

// CacheConfig tunes the cache-aside layer: per-entity TTLs, the short TTL for
// cached misses, and the sizing of the background rebuild pool.
type CacheConfig struct {
	ShopTTL        time.Duration `json:"shop_ttl"`
	ShopTypeTTL    time.Duration `json:"shop_type_ttl"`
	NullTTL        time.Duration `json:"null_ttl"`
	LockTTL        time.Duration `json:"lock_ttl"`
	RebuildWorkers int           `json:"rebuild_workers"`
	RebuildQueue   int           `json:"rebuild_queue"`
}

// SeckillConfig tunes the order admission gate.
type SeckillConfig struct {
	GateTTL     time.Duration `json:"gate_ttl"`
	GateRetries int           `json:"gate_retries"`
	GateBackoff time.Duration `json:"gate_backoff"`
}

type SecurityConfig struct {
	TokenTTL         time.Duration `json:"token_ttl"`
	CodeTTL          time.Duration `json:"code_ttl"`
	RateLimitEnabled bool          `json:"rate_limit_enabled"`
	RateLimitRPS     float64       `json:"rate_limit_rps"`
	RateLimitBurst   int           `json:"rate_limit_burst"`
}

func LoadConfig() (*Config, error) {
	config := &Config{}

	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}
	config.Environment = env

	configDir, err := filepath.Abs("config")
	if err != nil {
		return nil, err
	}

	configPath := filepath.Join(configDir, "config.json")

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %v", err)
		}

		if err := json.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %v", err)
		}
	}

	config.loadFromEnv()

	config.setEnvironmentDefaults()

	return config, nil
}

func (c *Config) loadFromEnv() {
	if host := os.Getenv("DB_HOST"); host != "" {
		c.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Database.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		c.Database.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		c.Database.Password = password
	}
	if dbname := os.Getenv("DB_NAME"); dbname != "" {
		c.Database.DBName = dbname
	}
	if sslmode := os.Getenv("DB_SSLMODE"); sslmode != "" {
		c.Database.SSLMode = sslmode
	}

	if host := os.Getenv("REDIS_HOST"); host != "" {
		c.Redis.Host = host
	}
	if port := os.Getenv("REDIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Redis.Port = p
		}
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Redis.Password = password
	}

	if serverPort := os.Getenv("SERVER_PORT"); serverPort != "" {
		c.Server.Port = serverPort
	}
}

func (c *Config) setEnvironmentDefaults() {
	switch c.Environment {
	case "production":
		c.setProductionDefaults()
	case "staging":
		c.setStagingDefaults()
	default: // development
		c.setDevelopmentDefaults()
	}
	c.setCommonDefaults()
}

func (c *Config) setDevelopmentDefaults() {
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = time.Hour
	}
	if c.Security.RateLimitRPS == 0 {
		c.Security.RateLimitRPS = 1000.0
	}
	if c.Security.RateLimitBurst == 0 {
		c.Security.RateLimitBurst = 2000
	}
}

func (c *Config) setStagingDefaults() {
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 500
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 50
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 12 * time.Hour
	}
	if c.Security.RateLimitRPS == 0 {
		c.Security.RateLimitRPS = 500.0
	}
	if c.Security.RateLimitBurst == 0 {
		c.Security.RateLimitBurst = 1000
	}
}

func (c *Config) setProductionDefaults() {
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 1000
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 100
	}
	if c.Database.MaxLifetime == 0 {
		c.Database.MaxLifetime = time.Hour
	}
	if c.Database.MaxIdleTime == 0 {
		c.Database.MaxIdleTime = 10 * time.Minute
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 15 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 24 * time.Hour
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 100
	}
	if c.Redis.MinIdle == 0 {
		c.Redis.MinIdle = 10
	}
	if c.Security.RateLimitRPS == 0 {
		c.Security.RateLimitRPS = 100.0
	}
	if c.Security.RateLimitBurst == 0 {
		c.Security.RateLimitBurst = 200
	}
}

func (c *Config) setCommonDefaults() {
	if c.Cache.ShopTTL == 0 {
		c.Cache.ShopTTL = 30 * time.Minute
	}
	if c.Cache.ShopTypeTTL == 0 {
		c.Cache.ShopTypeTTL = 24 * time.Hour
	}
	if c.Cache.NullTTL == 0 {
		c.Cache.NullTTL = 2 * time.Minute
	}
	if c.Cache.LockTTL == 0 {
		c.Cache.LockTTL = 10 * time.Second
	}
	if c.Cache.RebuildWorkers == 0 {
		c.Cache.RebuildWorkers = 10
	}
	if c.Cache.RebuildQueue == 0 {
		c.Cache.RebuildQueue = 40
	}
	if c.Seckill.GateTTL == 0 {
		c.Seckill.GateTTL = 5 * time.Second
	}
	if c.Seckill.GateRetries == 0 {
		c.Seckill.GateRetries = 3
	}
	if c.Seckill.GateBackoff == 0 {
		c.Seckill.GateBackoff = 20 * time.Millisecond
	}
	if c.Security.TokenTTL == 0 {
		c.Security.TokenTTL = 30 * time.Minute
	}
	if c.Security.CodeTTL == 0 {
		c.Security.CodeTTL = 2 * time.Minute
	}
}

func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database port is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.Password == "" {
		return fmt.Errorf("database password is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Redis.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	return nil
}

func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisURL() string {
	return fmt.Sprintf("redis://%s:%d", c.Redis.Host, c.Redis.Port)
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
