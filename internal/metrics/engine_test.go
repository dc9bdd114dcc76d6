package metrics

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"perf-matrix/internal/fill"
	"perf-matrix/internal/price"
)

var (
	day1 = fill.MustParseDate("2024-01-01")
	day2 = fill.MustParseDate("2024-01-02")
	day3 = fill.MustParseDate("2024-01-03")
)

func sampleStore(t *testing.T) *fill.Store {
	t.Helper()
	store, err := fill.NewStoreFromFills([]fill.Fill{
		{Date: day1, Instrument: "AAPL", Side: fill.SideBuy, Size: 10, Price: 150},
		{Date: day1, Instrument: "AAPL", Side: fill.SideSell, Size: 5, Price: 160},
		{Date: day2, Instrument: "GOOGL", Side: fill.SideSell, Size: 15, Price: 200},
		{Date: day2, Instrument: "GOOGL", Side: fill.SideBuy, Size: 20, Price: 210},
		{Date: day2, Instrument: "AAPL", Side: fill.SideSell, Size: 30, Price: 170},
	})
	require.NoError(t, err)
	return store
}

func constantEngine(t *testing.T, close float64) *Engine {
	t.Helper()
	resolver, err := price.Constant(close)
	require.NoError(t, err)
	engine, err := NewEngine(DefaultOptions(), resolver, zap.NewNop())
	require.NoError(t, err)
	return engine
}

func lastPosition(enriched []EnrichedFill, instrument string) float64 {
	var pos float64
	for _, e := range enriched {
		if e.Instrument == instrument {
			pos = e.Position
		}
	}
	return pos
}

func TestEngine_ConcreteScenario(t *testing.T) {
	result, err := constantEngine(t, 155).Run(context.Background(), sampleStore(t))
	require.NoError(t, err)
	require.Equal(t, StatusComputed, result.Status)

	s, ok := result.Stats()
	require.True(t, ok)

	assert.Equal(t, day1, s.StartDate)
	assert.Equal(t, day2, s.EndDate)
	assert.Equal(t, 2, s.NTradingDate)
	assert.Equal(t, 2, s.NTradedInstrument)
	assert.InDelta(t, 100.0, s.TotalPnL, 1e-9)
	assert.InDelta(t, 100.0-0.001*80, s.TotalNetPnL, 1e-9)
	assert.InDelta(t, 40.0, s.AvgTradeQty, 1e-9)
	assert.InDelta(t, 7300.0, s.AvgTradeNotional, 1e-9)
	assert.InDelta(t, 100.0/14600.0, s.PnLPerNotional, 1e-12)

	assert.Equal(t, -25.0, lastPosition(result.Enriched, "AAPL"))
	assert.Equal(t, 5.0, lastPosition(result.Enriched, "GOOGL"))

	// 日盈亏 75 与 25：均值 50，样本标准差 25√2
	assert.InDelta(t, 2.0, s.SharpeRatio, 1e-9)
	assert.Equal(t, 1.0, s.WinRate)
	assert.Equal(t, 0.0, s.MaxDrawdown)

	// day1: AAPL 多头 5×155；day2: AAPL 空头 25×155，GOOGL 多头 5×155
	assert.InDelta(t, (775.0+775.0+3875.0)/2, s.AvgGrossMarketValue, 1e-9)
	assert.InDelta(t, (775.0+775.0-3875.0)/2, s.AvgNetMarketValue, 1e-9)
}

func TestEngine_ResultTables(t *testing.T) {
	result, err := constantEngine(t, 155).Run(context.Background(), sampleStore(t))
	require.NoError(t, err)

	assert.Equal(t, []DailyVolume{
		{Date: day1, TotalSize: 15, TotalNotional: 2300},
		{Date: day2, TotalSize: 65, TotalNotional: 12300},
	}, result.Volume)

	assert.Equal(t, []DailyMarketValue{
		{Date: day1, LongMarketValue: 775},
		{Date: day2, LongMarketValue: 775, ShortMarketValue: 3875},
	}, result.MarketValue)

	require.Len(t, result.Snapshots, 3)
	assert.Equal(t, PositionSnapshot{
		Date: day2, Instrument: "AAPL", Position: -25, Close: 155,
		MarketValue: -3875, ShortMarketValue: 3875,
	}, result.Snapshots[1])

	require.Len(t, result.DailyPnL, 2)
	assert.InDelta(t, 75.0, result.DailyPnL[0].PnL, 1e-9)
	assert.InDelta(t, 100.0, result.DailyPnL[1].Cumulative, 1e-9)
	assert.Equal(t, 4, result.Prices.Len())
}

func TestEngine_TotalPnLMatchesSumOfFills(t *testing.T) {
	resolver, err := price.NewRandomResolver(7, 1, 100)
	require.NoError(t, err)
	engine, err := NewEngine(DefaultOptions(), resolver, nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), sampleStore(t))
	require.NoError(t, err)

	var sum, daily float64
	for _, e := range result.Enriched {
		sum += e.PnL
	}
	for _, d := range result.DailyPnL {
		daily += d.PnL
	}
	assert.InDelta(t, sum, result.Summary.TotalPnL, 1e-9)
	assert.InDelta(t, sum, daily, 1e-9)
	assert.GreaterOrEqual(t, result.Summary.AvgGrossMarketValue, math.Abs(result.Summary.AvgNetMarketValue))
}

func TestEngine_Idempotent(t *testing.T) {
	resolver, err := price.NewRandomResolver(11, 1, 100)
	require.NoError(t, err)
	engine, err := NewEngine(DefaultOptions(), resolver, nil)
	require.NoError(t, err)

	store := sampleStore(t)
	first, err := engine.Run(context.Background(), store)
	require.NoError(t, err)
	second, err := engine.Run(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, first.Summary, second.Summary)
	assert.Equal(t, first.Enriched, second.Enriched)
}

func TestEngine_EmptyInputSkipsResolver(t *testing.T) {
	var called bool
	resolver := price.ResolverFunc(func(ctx context.Context, dates []fill.Date, instruments []string) (*price.Table, error) {
		called = true
		return price.NewTable(), nil
	})
	engine, err := NewEngine(DefaultOptions(), resolver, nil)
	require.NoError(t, err)

	store, err := fill.NewStoreFromFills(nil)
	require.NoError(t, err)

	result, err := engine.Run(context.Background(), store)
	require.NoError(t, err)
	assert.Equal(t, StatusEmptyInput, result.Status)
	assert.True(t, result.Empty())
	assert.False(t, called)

	_, ok := result.Stats()
	assert.False(t, ok)
}

func TestEngine_MissingPriceFailsRun(t *testing.T) {
	table := price.NewTable()
	table.Set(day1, "AAPL", 155)
	table.Set(day2, "AAPL", 155)
	table.Set(day2, "GOOGL", 155)
	engine, err := NewEngine(DefaultOptions(), price.FromTable(table), nil)
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), sampleStore(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, price.ErrPriceResolution))

	var resErr *price.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, []price.Key{{Date: day1, Instrument: "GOOGL"}}, resErr.Missing)
}

func TestEngine_ResolverErrorIsWrapped(t *testing.T) {
	boom := errors.New("feed down")
	resolver := price.ResolverFunc(func(ctx context.Context, dates []fill.Date, instruments []string) (*price.Table, error) {
		return nil, boom
	})
	engine, err := NewEngine(DefaultOptions(), resolver, nil)
	require.NoError(t, err)

	_, err = engine.Run(context.Background(), sampleStore(t))
	assert.ErrorIs(t, err, boom)
}

func TestEngine_SingleDaySharpeIsNaN(t *testing.T) {
	store, err := fill.NewStoreFromFills([]fill.Fill{
		{Date: day1, Instrument: "AAPL", Side: fill.SideBuy, Size: 1, Price: 100},
	})
	require.NoError(t, err)

	result, err := constantEngine(t, 110).Run(context.Background(), store)
	require.NoError(t, err)

	s := result.Summary
	assert.True(t, math.IsNaN(s.SharpeRatio))
	assert.Equal(t, 10.0, s.TotalPnL)
	assert.Equal(t, 1.0, s.WinRate)
	assert.Equal(t, 1.0, lastPosition(result.Enriched, "AAPL"))
}

func TestNewEngine_Validates(t *testing.T) {
	_, err := NewEngine(DefaultOptions(), nil, nil)
	assert.Error(t, err)

	resolver, err := price.Constant(1)
	require.NoError(t, err)
	_, err = NewEngine(Options{CostRate: -1, DefaultSize: 1}, resolver, nil)
	assert.Error(t, err)
	_, err = NewEngine(Options{CostRate: 0, DefaultSize: 0}, resolver, nil)
	assert.Error(t, err)
}

func TestEngine_DrawdownAcrossDays(t *testing.T) {
	store, err := fill.NewStoreFromFills([]fill.Fill{
		{Date: day1, Instrument: "X", Side: fill.SideBuy, Size: 1, Price: 90},  // +10
		{Date: day2, Instrument: "X", Side: fill.SideBuy, Size: 1, Price: 130}, // -30
		{Date: day3, Instrument: "X", Side: fill.SideBuy, Size: 1, Price: 95},  // +5
	})
	require.NoError(t, err)

	result, err := constantEngine(t, 100).Run(context.Background(), store)
	require.NoError(t, err)

	assert.Equal(t, 30.0, result.Summary.MaxDrawdown)
	assert.InDelta(t, 2.0/3.0, result.Summary.WinRate, 1e-12)
	assert.Equal(t, []float64{10, 10, 10}, []float64{
		result.DailyPnL[0].RunningMax, result.DailyPnL[1].RunningMax, result.DailyPnL[2].RunningMax,
	})
	assert.Equal(t, 25.0, result.DailyPnL[2].Drawdown)
}
