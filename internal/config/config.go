package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "perfmatrix"
)

// Load 读取配置文件并结合环境变量返回 Config。
// path 为空且默认配置文件不存在时，仅使用默认值与环境变量。
func Load(path string) (*Config, error) {
	v := viper.New()

	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		switch {
		case missing && explicit:
			return nil, fmt.Errorf("未找到配置文件 %q: %w", path, err)
		case missing:
		default:
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.Input.Source = strings.ToLower(strings.TrimSpace(cfg.Input.Source))
	cfg.Price.Source = strings.ToLower(strings.TrimSpace(cfg.Price.Source))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("input.source", InputSourceCSV)
	v.SetDefault("input.path", "data/fills.csv")
	v.SetDefault("input.table", "fills")

	v.SetDefault("price.source", PriceSourceRandom)
	v.SetDefault("price.seed", 1)
	v.SetDefault("price.min", 1.0)
	v.SetDefault("price.max", 100.0)
	v.SetDefault("price.constant", 100.0)
	v.SetDefault("price.table", "close_prices")

	v.SetDefault("metrics.cost_rate", 0.001)
	v.SetDefault("metrics.default_size", 1.0)
	v.SetDefault("metrics.rolling_window", 5)

	v.SetDefault("exchange.name", "binanceusdm")
	v.SetDefault("exchange.api_key", "")
	v.SetDefault("exchange.api_secret", "")
	v.SetDefault("exchange.api_password", "")
	v.SetDefault("exchange.use_sandbox", false)
	v.SetDefault("exchange.quote", "USDT")
	v.SetDefault("exchange.symbols", map[string]string{})
	v.SetDefault("exchange.retry.max_attempts", 5)
	v.SetDefault("exchange.retry.min_delay", "500ms")
	v.SetDefault("exchange.retry.max_delay", "5s")

	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.model", "gpt-4.1")
	v.SetDefault("openai.timeout", "30s")

	v.SetDefault("database.path", "data/perfmatrix.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stderr"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})

	v.SetDefault("output.format", OutputFormatYAML)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
