package metrics

import (
	"math"
	"sort"

	"perf-matrix/internal/fill"
)

// AggregateVolume 按日汇总成交数量与名义金额，按日期升序。
func AggregateVolume(enriched []EnrichedFill) []DailyVolume {
	byDate := make(map[fill.Date]*DailyVolume)
	for _, e := range enriched {
		row, ok := byDate[e.Date]
		if !ok {
			row = &DailyVolume{Date: e.Date}
			byDate[e.Date] = row
		}
		row.TotalSize += e.Quantity
		row.TotalNotional += e.TradeNotional
	}

	out := make([]DailyVolume, 0, len(byDate))
	for _, row := range byDate {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// AggregateMarketValue 按日汇总所有标的的多空市值，按日期升序。
func AggregateMarketValue(snapshots []PositionSnapshot) []DailyMarketValue {
	byDate := make(map[fill.Date]*DailyMarketValue)
	for _, s := range snapshots {
		row, ok := byDate[s.Date]
		if !ok {
			row = &DailyMarketValue{Date: s.Date}
			byDate[s.Date] = row
		}
		row.LongMarketValue += s.LongMarketValue
		row.ShortMarketValue += s.ShortMarketValue
	}

	out := make([]DailyMarketValue, 0, len(byDate))
	for _, row := range byDate {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// DailyPnLSeries 按日汇总盈亏并计算累计盈亏、历史高点与回撤。
// 高点从首日累计值开始，不预设 0。
func DailyPnLSeries(enriched []EnrichedFill) []DailyPnL {
	byDate := make(map[fill.Date]*DailyPnL)
	for _, e := range enriched {
		row, ok := byDate[e.Date]
		if !ok {
			row = &DailyPnL{Date: e.Date}
			byDate[e.Date] = row
		}
		row.PnL += e.PnL
		row.NetPnL += e.NetPnL
	}

	out := make([]DailyPnL, 0, len(byDate))
	for _, row := range byDate {
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })

	cumulative := 0.0
	peak := math.Inf(-1)
	for i := range out {
		cumulative += out[i].PnL
		peak = math.Max(peak, cumulative)
		out[i].Cumulative = cumulative
		out[i].RunningMax = peak
		out[i].Drawdown = peak - cumulative
	}
	return out
}
