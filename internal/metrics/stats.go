package metrics

import (
	"math"

	"perf-matrix/internal/fill"
)

// Summarize 汇总全部统计指标。
// 日期与标的计数取自 store；store 为空时各均值为 NaN，调用方应先判断空输入。
func Summarize(store *fill.Store, enriched []EnrichedFill, volume []DailyVolume, marketValue []DailyMarketValue) Summary {
	s := Summary{
		StartDate:         store.StartDate(),
		EndDate:           store.EndDate(),
		NTradingDate:      len(store.Dates()),
		NTradedInstrument: len(store.Instruments()),
	}

	qty := make([]float64, len(volume))
	notional := make([]float64, len(volume))
	for i, v := range volume {
		qty[i] = v.TotalSize
		notional[i] = v.TotalNotional
	}
	s.AvgTradeQty = mean(qty)
	s.AvgTradeNotional = mean(notional)

	var totalNotional float64
	for _, e := range enriched {
		s.TotalPnL += e.PnL
		s.TotalNetPnL += e.NetPnL
		totalNotional += e.TradeNotional
	}
	s.PnLPerNotional = math.NaN()
	if totalNotional != 0 {
		s.PnLPerNotional = s.TotalPnL / totalNotional
	}

	gross := make([]float64, len(marketValue))
	net := make([]float64, len(marketValue))
	for i, mv := range marketValue {
		gross[i] = mv.Gross()
		net[i] = mv.Net()
	}
	s.AvgGrossMarketValue = mean(gross)
	s.AvgNetMarketValue = mean(net)

	daily := DailyPnLSeries(enriched)
	pnl := make([]float64, len(daily))
	var wins int
	s.MaxDrawdown = math.NaN()
	for i, d := range daily {
		pnl[i] = d.PnL
		if d.PnL > 0 {
			wins++
		}
		if i == 0 || d.Drawdown > s.MaxDrawdown {
			s.MaxDrawdown = d.Drawdown
		}
	}
	s.SharpeRatio = sharpe(pnl)
	s.WinRate = math.NaN()
	if len(daily) > 0 {
		s.WinRate = float64(wins) / float64(len(daily))
	}

	return s
}

// sharpe = mean / 样本标准差 × sqrt(天数)；少于两天或标准差为 0 时为 NaN。
func sharpe(daily []float64) float64 {
	std := sampleStdDev(daily)
	if math.IsNaN(std) || std == 0 {
		return math.NaN()
	}
	return mean(daily) / std * math.Sqrt(float64(len(daily)))
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStdDev 使用 n-1 作分母。
func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
