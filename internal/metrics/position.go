package metrics

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"perf-matrix/internal/fill"
)

// TrackPositions 按标的计算 SignedSize 的累计和并写入 Position，返回新切片。
// 输入须已按 (日期, Seq) 排序；每个标的独立计算，结果按行下标回写，与完成顺序无关。
func TrackPositions(ctx context.Context, enriched []EnrichedFill) ([]EnrichedFill, error) {
	out := make([]EnrichedFill, len(enriched))
	copy(out, enriched)

	groups := make(map[string][]int)
	var order []string
	for i, e := range out {
		if _, ok := groups[e.Instrument]; !ok {
			order = append(order, e.Instrument)
		}
		groups[e.Instrument] = append(groups[e.Instrument], i)
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, inst := range order {
		rows := groups[inst]
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			var running float64
			for _, idx := range rows {
				running += out[idx].SignedSize
				out[idx].Position = running
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Snapshots 取每个 (日期, 标的) 分组中的最后一笔成交计算市值，按 (日期, 标的) 排序。
func Snapshots(enriched []EnrichedFill) []PositionSnapshot {
	type groupKey struct {
		date       fill.Date
		instrument string
	}

	last := make(map[groupKey]int)
	var keys []groupKey
	for i, e := range enriched {
		k := groupKey{date: e.Date, instrument: e.Instrument}
		if _, ok := last[k]; !ok {
			keys = append(keys, k)
		}
		last[k] = i
	}

	sort.Slice(keys, func(i, j int) bool {
		if c := keys[i].date.Compare(keys[j].date); c != 0 {
			return c < 0
		}
		return keys[i].instrument < keys[j].instrument
	})

	out := make([]PositionSnapshot, 0, len(keys))
	for _, k := range keys {
		e := enriched[last[k]]
		mv := e.Position * e.Close

		snap := PositionSnapshot{
			Date:        k.date,
			Instrument:  k.instrument,
			Position:    e.Position,
			Close:       e.Close,
			MarketValue: mv,
		}
		switch {
		case e.Position > 0:
			snap.LongMarketValue = mv
		case e.Position < 0:
			snap.ShortMarketValue = -mv
		}
		out = append(out, snap)
	}
	return out
}
