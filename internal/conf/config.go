package conf

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Mysql     MysqlConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	AI        AIConfig        `mapstructure:"ai"`
	Sensitive SensitiveConfig `mapstructure:"sensitive"`
	Backup    BackupConfig    `mapstructure:"backup"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MysqlConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	LogLevel string `mapstructure:"logLevel"`
	MaxOpen  int    `mapstructure:"maxOpen"`
	MaxIdle  int    `mapstructure:"maxIdle"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig 读缓存 TTL 与预热配置
type CacheConfig struct {
	ListTTL    time.Duration `mapstructure:"listTTL"`    // 列表结果，默认 60s
	DetailTTL  time.Duration `mapstructure:"detailTTL"`  // 详情和标签云，默认 300s
	WarmEnable bool          `mapstructure:"warmEnable"` // 是否开启定时预热
	WarmCron   string        `mapstructure:"warmCron"`   // 预热周期，默认每 5 分钟
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	TTL    time.Duration `mapstructure:"ttl"` // 默认 7 天
}

// RateLimitConfig /api 限流，固定窗口
type RateLimitConfig struct {
	Window time.Duration `mapstructure:"window"` // 默认 15 分钟
	Max    int           `mapstructure:"max"`    // 默认 200 次
}

type AIConfig struct {
	APIKey string `mapstructure:"apiKey"` // 不配置时返回示例草稿
	Model  string `mapstructure:"model"`
}

// SensitiveConfig 评论敏感词过滤，词库文件不存在时跳过过滤
type SensitiveConfig struct {
	Dict string `mapstructure:"dict"`
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoadConfig 加载配置
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv() // 自动读取环境变量

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// 显式展开 YAML 中的 ${VAR}
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.Contains(val, "${") {
			v.Set(key, os.ExpandEnv(val))
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = ":8080"
	}
	if c.Cache.ListTTL <= 0 {
		c.Cache.ListTTL = 60 * time.Second
	}
	if c.Cache.DetailTTL <= 0 {
		c.Cache.DetailTTL = 300 * time.Second
	}
	if c.Cache.WarmCron == "" {
		c.Cache.WarmCron = "@every 5m"
	}
	if c.JWT.Secret == "" {
		c.JWT.Secret = "dev_secret"
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = 7 * 24 * time.Hour
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = 15 * time.Minute
	}
	if c.RateLimit.Max <= 0 {
		c.RateLimit.Max = 200
	}
	if c.AI.Model == "" {
		c.AI.Model = "gpt-4o-mini"
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = "backups"
	}
}
