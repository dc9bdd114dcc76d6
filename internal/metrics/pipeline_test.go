package metrics

import (
	"context"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perf-matrix/internal/fill"
	"perf-matrix/internal/price"
)

func TestEnrich_Formulas(t *testing.T) {
	prices := price.NewTable()
	prices.Set(day1, "AAPL", 155)

	fills := []fill.Fill{
		{Date: day1, Instrument: "AAPL", Side: fill.SideSell, Size: 4, Price: 160},
		{Date: day1, Instrument: "AAPL", Side: fill.SideBuy, SizeMissing: true, Price: 150},
		{Date: day1, Instrument: "AAPL", Side: fill.SideBuy, Size: 0, Price: 150},
	}

	out, err := Enrich(fills, prices, DefaultOptions())
	require.NoError(t, err)
	require.Len(t, out, 3)

	sell := out[0]
	assert.Equal(t, -4.0, sell.SignedSize)
	assert.Equal(t, 640.0, sell.TradeNotional)
	assert.Equal(t, 20.0, sell.PnL)
	assert.InDelta(t, 20.0/640.0, sell.PnLPerNotional, 1e-15)
	assert.InDelta(t, 20.0-0.004, sell.NetPnL, 1e-12)

	// 缺失数量按 1 计
	assert.Equal(t, 1.0, out[1].Quantity)
	assert.Equal(t, 5.0, out[1].PnL)

	// 数量为 0 时名义金额为 0，比率无定义
	assert.Equal(t, 0.0, out[2].TradeNotional)
	assert.True(t, math.IsNaN(out[2].PnLPerNotional))
}

func TestEnrich_MissingPrice(t *testing.T) {
	prices := price.NewTable()
	prices.Set(day1, "AAPL", 155)

	_, err := Enrich([]fill.Fill{
		{Date: day1, Instrument: "AAPL", Side: fill.SideBuy, Size: 1, Price: 150},
		{Date: day1, Instrument: "MSFT", Side: fill.SideBuy, Size: 1, Price: 300},
		{Date: day1, Instrument: "MSFT", Side: fill.SideSell, Size: 1, Price: 301},
	}, prices, DefaultOptions())

	var resErr *price.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, []price.Key{{Date: day1, Instrument: "MSFT"}}, resErr.Missing)
}

func TestTrackPositions_PerInstrumentRunningSum(t *testing.T) {
	var enriched []EnrichedFill
	want := map[string]float64{}
	for i := 0; i < 200; i++ {
		inst := fmt.Sprintf("I%d", i%7)
		signed := float64(i%5) - 2
		enriched = append(enriched, EnrichedFill{
			Fill:       fill.Fill{Seq: i, Date: day1, Instrument: inst},
			SignedSize: signed,
		})
		want[inst] += signed
	}

	out, err := TrackPositions(context.Background(), enriched)
	require.NoError(t, err)
	require.Len(t, out, len(enriched))

	for inst, total := range want {
		assert.Equal(t, total, lastPosition(out, inst), inst)
	}
	// 输入不被修改
	assert.Equal(t, 0.0, enriched[len(enriched)-1].Position)

	again, err := TrackPositions(context.Background(), enriched)
	require.NoError(t, err)
	assert.Equal(t, out, again)
}

func TestTrackPositions_SingleFill(t *testing.T) {
	out, err := TrackPositions(context.Background(), []EnrichedFill{
		{Fill: fill.Fill{Date: day1, Instrument: "AAPL"}, SignedSize: -3},
	})
	require.NoError(t, err)
	assert.Equal(t, -3.0, out[0].Position)
}

func TestSnapshots_TakesLastRowPerGroup(t *testing.T) {
	enriched := []EnrichedFill{
		{Fill: fill.Fill{Date: day1, Instrument: "B"}, Position: 1, Close: 10},
		{Fill: fill.Fill{Date: day1, Instrument: "A"}, Position: -2, Close: 5},
		{Fill: fill.Fill{Date: day1, Instrument: "B"}, Position: 0, Close: 10},
		{Fill: fill.Fill{Date: day2, Instrument: "A"}, Position: 4, Close: 6},
	}

	snaps := Snapshots(enriched)
	require.Len(t, snaps, 3)

	assert.Equal(t, "A", snaps[0].Instrument)
	assert.Equal(t, 10.0, snaps[0].ShortMarketValue)
	assert.Equal(t, 0.0, snaps[0].LongMarketValue)

	assert.Equal(t, "B", snaps[1].Instrument)
	assert.Equal(t, 0.0, snaps[1].MarketValue)
	assert.Equal(t, 0.0, snaps[1].LongMarketValue+snaps[1].ShortMarketValue)

	assert.Equal(t, day2, snaps[2].Date)
	assert.Equal(t, 24.0, snaps[2].LongMarketValue)
}

func TestSharpe(t *testing.T) {
	assert.True(t, math.IsNaN(sharpe([]float64{5})))
	assert.True(t, math.IsNaN(sharpe([]float64{3, 3, 3})))
	assert.InDelta(t, 2.0, sharpe([]float64{75, 25}), 1e-12)
}
