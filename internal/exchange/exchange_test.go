package exchange

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	ccxt "github.com/ccxt/ccxt/go/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"perf-matrix/internal/config"
	"perf-matrix/internal/fill"
	"perf-matrix/internal/price"
)

type fakeFetcher struct {
	mu      sync.Mutex
	closes  map[string]map[fill.Date]float64
	fail    map[string]error
	symbols []string
}

func (f *fakeFetcher) FetchDailyCloses(ctx context.Context, symbol string, since, until fill.Date) (map[fill.Date]float64, error) {
	f.mu.Lock()
	f.symbols = append(f.symbols, symbol)
	f.mu.Unlock()

	if err := f.fail[symbol]; err != nil {
		return nil, err
	}
	out := make(map[fill.Date]float64)
	for d, c := range f.closes[symbol] {
		if d.Before(since) || d.After(until) {
			continue
		}
		out[d] = c
	}
	return out, nil
}

var (
	d1 = fill.MustParseDate("2024-01-01")
	d2 = fill.MustParseDate("2024-01-02")
)

func TestDefaultSymbol(t *testing.T) {
	assert.Equal(t, "BTC/USDT:USDT", DefaultSymbol("btc", ""))
	assert.Equal(t, "ETH/USDC:USDC", DefaultSymbol("ETH", "usdc"))
	assert.Equal(t, "SOL/USDT", DefaultSymbol("SOL/USDT", "USDT"))
}

func TestPriceResolver_AssemblesTable(t *testing.T) {
	fetcher := &fakeFetcher{closes: map[string]map[fill.Date]float64{
		"BTC/USDT:USDT": {d1: 42000, d2: 43000, fill.MustParseDate("2023-12-31"): 1},
		"ETH-PERP":      {d1: 2200, d2: 2300},
	}}
	cfg := config.ExchangeConfig{Quote: "USDT", Symbols: map[string]string{"eth": "ETH-PERP"}}

	r := NewPriceResolver(fetcher, cfg, zap.NewNop())
	dates := []fill.Date{d2, d1}
	instruments := []string{"BTC", "ETH"}

	table, err := r.Resolve(context.Background(), dates, instruments)
	require.NoError(t, err)
	require.NoError(t, price.Verify(table, dates, instruments))
	assert.Equal(t, 4, table.Len())

	close, ok := table.Lookup(d2, "ETH")
	require.True(t, ok)
	assert.Equal(t, 2300.0, close)
	assert.ElementsMatch(t, []string{"BTC/USDT:USDT", "ETH-PERP"}, fetcher.symbols)
}

func TestPriceResolver_GapsLeftForVerify(t *testing.T) {
	fetcher := &fakeFetcher{closes: map[string]map[fill.Date]float64{
		"BTC/USDT:USDT": {d1: 42000},
	}}
	r := NewPriceResolver(fetcher, config.ExchangeConfig{Quote: "USDT"}, nil)

	dates := []fill.Date{d1, d2}
	table, err := r.Resolve(context.Background(), dates, []string{"BTC"})
	require.NoError(t, err)

	err = price.Verify(table, dates, []string{"BTC"})
	assert.ErrorIs(t, err, price.ErrPriceResolution)
}

func TestPriceResolver_PropagatesFetchError(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &fakeFetcher{fail: map[string]error{"ETH/USDT:USDT": boom}}
	r := NewPriceResolver(fetcher, config.ExchangeConfig{Quote: "USDT"}, nil)

	_, err := r.Resolve(context.Background(), []fill.Date{d1}, []string{"BTC", "ETH"})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "ETH")
}

func TestPriceResolver_EmptyRequestSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{}
	r := NewPriceResolver(fetcher, config.ExchangeConfig{}, nil)

	table, err := r.Resolve(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, table.Len())
	assert.Empty(t, fetcher.symbols)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyError(t *testing.T) {
	_, retry := classifyError(context.Canceled)
	assert.False(t, retry)

	_, retry = classifyError(timeoutErr{})
	assert.True(t, retry)

	_, retry = classifyError(&ccxt.Error{Type: ccxt.RateLimitExceededErrType, Message: "slow down"})
	assert.True(t, retry)

	err, retry := classifyError(&ccxt.Error{Type: ccxt.OnMaintenanceErrType})
	assert.False(t, retry)
	assert.ErrorIs(t, err, ErrMaintenance)

	_, retry = classifyError(errors.New("bad symbol"))
	assert.False(t, retry)
}

func TestCallWithRetry(t *testing.T) {
	c := &Client{
		cfg: config.ExchangeConfig{Retry: config.RetryConfig{
			MaxAttempts: 3,
			MinDelay:    time.Millisecond,
			MaxDelay:    2 * time.Millisecond,
		}},
		logger: zap.NewNop(),
	}

	t.Run("retries transient errors", func(t *testing.T) {
		calls := 0
		err := c.callWithRetry(context.Background(), "op", func() error {
			calls++
			if calls < 3 {
				return timeoutErr{}
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		calls := 0
		err := c.callWithRetry(context.Background(), "op", func() error {
			calls++
			return timeoutErr{}
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		calls := 0
		err := c.callWithRetry(context.Background(), "op", func() error {
			calls++
			return errors.New("invalid symbol")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("stops on canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := c.callWithRetry(ctx, "op", func() error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestNewClient_RejectsUnknownExchange(t *testing.T) {
	_, err := NewClient(config.ExchangeConfig{Name: "kraken"}, nil)
	assert.Error(t, err)
}
