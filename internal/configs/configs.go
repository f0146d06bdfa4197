package configs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/normienation/normie/internal/data/collector/dexscreener"
	"github.com/normienation/normie/internal/data/collector/solana"
)

type Config struct {
	// 基础配置
	LogLevel        string        `mapstructure:"log_level"`        // debug/info/warn/error
	RefreshInterval time.Duration `mapstructure:"refresh_interval"` // 轮询间隔

	Server   Server   `mapstructure:"server"`
	Upstream Upstream `mapstructure:"upstream"`
	Database Database `mapstructure:"database"`
}

type Server struct {
	Addr            string        `mapstructure:"addr"`             // 监听地址
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"` // 优雅退出超时
}

type Upstream struct {
	DexScreenerURL string        `mapstructure:"dexscreener_url"`
	SolanaRPCURL   string        `mapstructure:"solana_rpc_url"`
	Timeout        time.Duration `mapstructure:"timeout"`     // 单次上游请求超时
	RetryCount     int           `mapstructure:"retry_count"` // resty 重试次数
}

type Database struct {
	ConnStr string `mapstructure:"conn_str"` // 为空时不归档价格
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("refresh_interval", "10s")
	v.SetDefault("server.addr", ":5000")
	v.SetDefault("server.shutdown_timeout", "15s")
	v.SetDefault("upstream.dexscreener_url", dexscreener.DefaultBaseURL)
	v.SetDefault("upstream.solana_rpc_url", solana.DefaultRPCEndpoint)
	v.SetDefault("upstream.timeout", "10s")
	v.SetDefault("upstream.retry_count", 0)
	v.SetDefault("database.conn_str", "")
}

// Load reads config.yaml from dir, if present, and applies NORMIE_*
// environment overrides on top of the defaults.
func Load(dir string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if dir != "" {
		v.AddConfigPath(dir)
	}

	v.SetEnvPrefix("NORMIE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval)
	}
	if c.Upstream.Timeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive, got %s", c.Upstream.Timeout)
	}
	if c.Upstream.RetryCount < 0 {
		return fmt.Errorf("upstream.retry_count must not be negative, got %d", c.Upstream.RetryCount)
	}
	return nil
}
