package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestLoad_DefaultsWhenNoFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, InputSourceCSV, cfg.Input.Source)
	assert.Equal(t, PriceSourceRandom, cfg.Price.Source)
	assert.Equal(t, 0.001, cfg.Metrics.CostRate)
	assert.Equal(t, 1.0, cfg.Metrics.DefaultSize)
	assert.Equal(t, 5, cfg.Metrics.RollingWindow)
	assert.Equal(t, 500*time.Millisecond, cfg.Exchange.Retry.MinDelay)
	assert.Equal(t, OutputFormatYAML, cfg.Output.Format)
	assert.False(t, cfg.NeedsDatabase())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
input:
  source: SQLite
  table: trades
price:
  source: constant
  constant: 155
metrics:
  cost_rate: 0.002
database:
  in_memory: true
output:
  format: text
exchange:
  symbols:
    btc: BTC/USDT:USDT
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, InputSourceSQLite, cfg.Input.Source)
	assert.Equal(t, "trades", cfg.Input.Table)
	assert.Equal(t, PriceSourceConstant, cfg.Price.Source)
	assert.Equal(t, 155.0, cfg.Price.Constant)
	assert.Equal(t, 0.002, cfg.Metrics.CostRate)
	assert.Equal(t, OutputFormatText, cfg.Output.Format)
	assert.Equal(t, "BTC/USDT:USDT", cfg.Exchange.Symbols["btc"])
	assert.True(t, cfg.NeedsDatabase())
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PERFMATRIX_METRICS_COST_RATE", "0.005")
	t.Setenv("PERFMATRIX_PRICE_SEED", "42")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 0.005, cfg.Metrics.CostRate)
	assert.Equal(t, int64(42), cfg.Price.Seed)
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未找到配置文件")
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Input.Source = "ftp"
	cfg.Price.Min = 10
	cfg.Price.Max = 5
	cfg.Metrics.CostRate = -1
	cfg.Output.Format = "xml"

	err = cfg.Validate()
	require.Error(t, err)

	errs := multierr.Errors(errors.Unwrap(err))
	assert.Len(t, errs, 4)
	assert.Contains(t, err.Error(), "input.source 取值非法")
	assert.Contains(t, err.Error(), "price.max 必须大于 price.min")
	assert.Contains(t, err.Error(), "metrics.cost_rate 不能为负")
	assert.Contains(t, err.Error(), "output.format 取值非法")
}

func TestValidate_ExchangeRetry(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	cfg.Price.Source = PriceSourceExchange
	cfg.Exchange.Retry.MinDelay = 10 * time.Second

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exchange.retry.min_delay 不能大于 max_delay")
}
