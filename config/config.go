// Package config 提供了统一的配置加载与热更新能力.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/wyfcoding/autocomplete/logging"
)

// Config 全局顶级配置结构.
type Config struct {
	Version    string           `mapstructure:"version"    toml:"version"`
	Server     ServerConfig     `mapstructure:"server"     toml:"server"`
	Log        LogConfig        `mapstructure:"log"        toml:"log"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    toml:"metrics"`
	Tracing    TracingConfig    `mapstructure:"tracing"    toml:"tracing"`
	RateLimit  RateLimitConfig  `mapstructure:"ratelimit"  toml:"ratelimit"`
	Dictionary DictionaryConfig `mapstructure:"dictionary" toml:"dictionary"`
}

// ServerConfig 定义服务器运行时的基础网络参数.
type ServerConfig struct {
	Name        string `mapstructure:"name"        toml:"name"        validate:"required"`
	Environment string `mapstructure:"environment" toml:"environment" validate:"oneof=dev test prod"`
	HTTP        struct {
		Addr              string        `mapstructure:"addr"                toml:"addr"`
		Port              int           `mapstructure:"port"                toml:"port"                validate:"required,min=1,max=65535"`
		ReadTimeout       time.Duration `mapstructure:"read_timeout"        toml:"read_timeout"`
		ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" toml:"read_header_timeout"`
		WriteTimeout      time.Duration `mapstructure:"write_timeout"       toml:"write_timeout"`
		IdleTimeout       time.Duration `mapstructure:"idle_timeout"        toml:"idle_timeout"`
		ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"    toml:"shutdown_timeout"`
	} `mapstructure:"http" toml:"http"`
}

// LogConfig 定义日志输出、级别与切割策略.
type LogConfig struct {
	Level      string `mapstructure:"level"       toml:"level"       validate:"omitempty,oneof=debug info warn error"`
	Output     string `mapstructure:"output"      toml:"output"      validate:"omitempty,oneof=stdout file both"`
	File       string `mapstructure:"file"        toml:"file"        validate:"required_if=Output file"`
	MaxSize    int    `mapstructure:"max_size"    toml:"max_size"`    // 单个文件最大大小 (MB)。
	MaxBackups int    `mapstructure:"max_backups" toml:"max_backups"` // 最大备份数。
	MaxAge     int    `mapstructure:"max_age"     toml:"max_age"`     // 最大保留天数。
	Compress   bool   `mapstructure:"compress"    toml:"compress"`
}

// MetricsConfig 普罗米修斯监控指标暴露配置.
type MetricsConfig struct {
	Path    string `mapstructure:"path"    toml:"path"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
}

// TracingConfig 链路追踪配置.
type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"  toml:"service_name"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint" toml:"otlp_endpoint" validate:"required_if=Enabled true"`
	SamplerRatio float64 `mapstructure:"sampler_ratio" toml:"sampler_ratio" validate:"min=0,max=1"`
	Enabled      bool    `mapstructure:"enabled"       toml:"enabled"`
}

// RateLimitConfig 令牌桶限流参数.
type RateLimitConfig struct {
	Rate    int  `mapstructure:"rate"    toml:"rate"  validate:"required_if=Enabled true"`
	Burst   int  `mapstructure:"burst"   toml:"burst" validate:"required_if=Enabled true"`
	Enabled bool `mapstructure:"enabled" toml:"enabled"`
}

// DictionaryConfig 定义自动补全字典的词条来源.
type DictionaryConfig struct {
	Terms []string    `mapstructure:"terms" toml:"terms" validate:"dive,required"` // 内联词条
	Files []string    `mapstructure:"files" toml:"files" validate:"dive,required"` // 每行一个词条的文件
	Watch bool        `mapstructure:"watch" toml:"watch"`                          // 监听 Files 的变更并增量加载
	Redis RedisConfig `mapstructure:"redis" toml:"redis"`
}

// RedisConfig 定义以 Redis Set 作为词条来源时的连接参数.
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"        toml:"enabled"`
	Addr         string        `mapstructure:"addr"           toml:"addr"           validate:"required_if=Enabled true"`
	Password     string        `mapstructure:"password"       toml:"password"`
	Key          string        `mapstructure:"key"            toml:"key"            validate:"required_if=Enabled true"`
	DB           int           `mapstructure:"db"             toml:"db"`
	PoolSize     int           `mapstructure:"pool_size"      toml:"pool_size"`
	ScanCount    int64         `mapstructure:"scan_count"     toml:"scan_count"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"   toml:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"  toml:"write_timeout"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"   toml:"dial_timeout"`

	// RefreshInterval 大于 0 时周期性重新扫描 Set，新成员会被加入字典
	RefreshInterval time.Duration `mapstructure:"refresh_interval" toml:"refresh_interval"`
	Breaker         BreakerConfig `mapstructure:"breaker"          toml:"breaker"`
}

// BreakerConfig 熔断器参数.
type BreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"      toml:"enabled"`
	MaxRequests uint32        `mapstructure:"max_requests" toml:"max_requests"`
	Interval    time.Duration `mapstructure:"interval"     toml:"interval"`
	Timeout     time.Duration `mapstructure:"timeout"      toml:"timeout"`
}

var (
	mu        sync.Mutex
	vInstance = viper.New()
	onReload  []func(*Config)
)

// RegisterReloadHook 注册配置热更新回调。
func RegisterReloadHook(hook func(*Config)) {
	if hook == nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	onReload = append(onReload, hook)
}

func reloadHooks() []func(*Config) {
	mu.Lock()
	defer mu.Unlock()
	return append([]func(*Config){}, onReload...)
}

// Load 从 TOML 文件加载配置，支持 APP_ 前缀的环境变量覆盖，加载后校验并开启热更新.
func Load(path string, conf *Config) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config error: %w", err)
	}

	if err := v.Unmarshal(conf); err != nil {
		return fmt.Errorf("unmarshal config error: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(conf); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	mu.Lock()
	vInstance = v
	mu.Unlock()

	v.OnConfigChange(func(event fsnotify.Event) {
		slog.Info("detecting config change", "file", event.Name)
		const debounceTimeout = 500 * time.Millisecond
		time.Sleep(debounceTimeout)

		var next Config
		if err := v.Unmarshal(&next); err != nil {
			slog.Error("reload config unmarshal failed", "error", err)
			return
		}
		if err := validate.Struct(&next); err != nil {
			slog.Error("reload config validation failed", "error", err)
			return
		}

		*conf = next
		logging.SetLevel(next.Log.Level)
		slog.Info("config hot-reloaded and validated successfully")

		for _, hook := range reloadHooks() {
			hook(conf)
		}
	})
	v.WatchConfig()

	return nil
}

// PrintWithMask 脱敏打印当前配置.
func PrintWithMask(conf any) {
	data, err := json.Marshal(conf)
	if err != nil {
		slog.Error("failed to marshal config for printing", "error", err)
		return
	}

	var configMap map[string]any
	if err := json.Unmarshal(data, &configMap); err != nil {
		slog.Error("failed to unmarshal config for masking", "error", err)
		return
	}

	mask(configMap)

	masked, err := json.Marshal(configMap)
	if err != nil {
		slog.Error("failed to marshal masked config", "error", err)
		return
	}

	slog.Info("current effective configuration", "config", string(masked))
}

func mask(configMap map[string]any) {
	sensitiveKeys := []string{"password", "secret", "token"}

	for key, val := range configMap {
		if sub, ok := val.(map[string]any); ok {
			mask(sub)
			continue
		}
		for _, sensitive := range sensitiveKeys {
			if strings.Contains(strings.ToLower(key), sensitive) {
				configMap[key] = "******"
				break
			}
		}
	}
}

// GetViper 返回最近一次 Load 使用的 Viper 实例.
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return vInstance
}
