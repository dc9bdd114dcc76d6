package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
)

// 可选的数据来源与输出格式。
const (
	InputSourceCSV    = "csv"
	InputSourceSQLite = "sqlite"

	PriceSourceRandom   = "random"
	PriceSourceConstant = "constant"
	PriceSourceSQLite   = "sqlite"
	PriceSourceExchange = "exchange"

	OutputFormatYAML = "yaml"
	OutputFormatJSON = "json"
	OutputFormatText = "text"
)

// Config 聚合了一次绩效分析所需的全部配置项。
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Input    InputConfig    `mapstructure:"input"`
	Price    PriceConfig    `mapstructure:"price"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Exchange ExchangeConfig `mapstructure:"exchange"`
	OpenAI   OpenAIConfig   `mapstructure:"openai"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Output   OutputConfig   `mapstructure:"output"`
}

// AppConfig 控制应用级参数。
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// InputConfig 描述成交记录的来源。
type InputConfig struct {
	Source string `mapstructure:"source"` // csv | sqlite
	Path   string `mapstructure:"path"`   // CSV 文件路径
	Table  string `mapstructure:"table"`  // SQLite 表名
}

// PriceConfig 描述收盘价来源。
type PriceConfig struct {
	Source   string  `mapstructure:"source"` // random | constant | sqlite | exchange
	Seed     int64   `mapstructure:"seed"`
	Min      float64 `mapstructure:"min"`
	Max      float64 `mapstructure:"max"`
	Constant float64 `mapstructure:"constant"`
	Table    string  `mapstructure:"table"`
}

// MetricsConfig 控制指标计算参数。
type MetricsConfig struct {
	CostRate      float64 `mapstructure:"cost_rate"`
	DefaultSize   float64 `mapstructure:"default_size"`
	RollingWindow int     `mapstructure:"rolling_window"`
}

// ExchangeConfig 描述行情交易所连接信息。
type ExchangeConfig struct {
	Name       string            `mapstructure:"name"`
	APIKey     string            `mapstructure:"api_key"`
	APISecret  string            `mapstructure:"api_secret"`
	APIPass    string            `mapstructure:"api_password"`
	UseSandbox bool              `mapstructure:"use_sandbox"`
	Quote      string            `mapstructure:"quote"`
	Symbols    map[string]string `mapstructure:"symbols"`
	Retry      RetryConfig       `mapstructure:"retry"`
}

// RetryConfig 统一控制重试机制。
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	MinDelay    time.Duration `mapstructure:"min_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// OpenAIConfig 描述大模型调用参数，APIKey 为空时不启用点评。
type OpenAIConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// DatabaseConfig 管理数据库连接。
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig 控制日志输出。
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// OutputConfig 控制结果输出格式。
type OutputConfig struct {
	Format string `mapstructure:"format"`
}

// NeedsDatabase 判断当前配置是否需要打开 SQLite。
func (c *Config) NeedsDatabase() bool {
	return c.Input.Source == InputSourceSQLite || c.Price.Source == PriceSourceSQLite
}

// Validate 对配置进行基本校验。
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment 不能为空"))
	}

	switch c.Input.Source {
	case InputSourceCSV:
		if strings.TrimSpace(c.Input.Path) == "" {
			err = multierr.Append(err, errors.New("input.path 不能为空 (source=csv)"))
		}
	case InputSourceSQLite:
		if strings.TrimSpace(c.Input.Table) == "" {
			err = multierr.Append(err, errors.New("input.table 不能为空 (source=sqlite)"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("input.source 取值非法: %q", c.Input.Source))
	}

	switch c.Price.Source {
	case PriceSourceRandom:
		if c.Price.Min <= 0 {
			err = multierr.Append(err, errors.New("price.min 必须大于0"))
		}
		if c.Price.Max <= c.Price.Min {
			err = multierr.Append(err, errors.New("price.max 必须大于 price.min"))
		}
	case PriceSourceConstant:
		if c.Price.Constant <= 0 {
			err = multierr.Append(err, errors.New("price.constant 必须大于0"))
		}
	case PriceSourceSQLite:
		if strings.TrimSpace(c.Price.Table) == "" {
			err = multierr.Append(err, errors.New("price.table 不能为空 (source=sqlite)"))
		}
	case PriceSourceExchange:
		if c.Exchange.Name == "" {
			err = multierr.Append(err, errors.New("exchange.name 不能为空"))
		}
		if c.Exchange.Retry.MaxAttempts <= 0 {
			err = multierr.Append(err, errors.New("exchange.retry.max_attempts 必须大于0"))
		}
		if c.Exchange.Retry.MinDelay <= 0 || c.Exchange.Retry.MaxDelay <= 0 {
			err = multierr.Append(err, errors.New("exchange.retry.delay 必须为正"))
		}
		if c.Exchange.Retry.MinDelay > c.Exchange.Retry.MaxDelay {
			err = multierr.Append(err, errors.New("exchange.retry.min_delay 不能大于 max_delay"))
		}
	default:
		err = multierr.Append(err, fmt.Errorf("price.source 取值非法: %q", c.Price.Source))
	}

	if c.Metrics.CostRate < 0 {
		err = multierr.Append(err, errors.New("metrics.cost_rate 不能为负"))
	}
	if c.Metrics.DefaultSize <= 0 {
		err = multierr.Append(err, errors.New("metrics.default_size 必须大于0"))
	}
	if c.Metrics.RollingWindow < 2 {
		err = multierr.Append(err, errors.New("metrics.rolling_window 至少为2"))
	}

	if c.NeedsDatabase() {
		if c.Database.Path == "" && !c.Database.InMemory {
			err = multierr.Append(err, errors.New("database.path 不能为空"))
		}
		if c.Database.MaxOpenConns <= 0 {
			err = multierr.Append(err, errors.New("database.max_open_conns 必须大于0"))
		}
		if c.Database.MaxIdleConns < 0 {
			err = multierr.Append(err, errors.New("database.max_idle_conns 不能为负"))
		}
		if c.Database.ConnMaxLifetime < 0 {
			err = multierr.Append(err, errors.New("database.conn_max_lifetime 不能为负"))
		}
	}

	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level 不能为空"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding 不能为空"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths 至少包含一个输出目标"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths 至少包含一个输出目标"))
	}

	switch c.Output.Format {
	case OutputFormatYAML, OutputFormatJSON, OutputFormatText:
	default:
		err = multierr.Append(err, fmt.Errorf("output.format 取值非法: %q", c.Output.Format))
	}

	if err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}

	return nil
}
