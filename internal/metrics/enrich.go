package metrics

import (
	"math"

	"perf-matrix/internal/fill"
	"perf-matrix/internal/price"
)

// Enrich 为每笔成交关联收盘价并计算盈亏，输出与输入等长同序。
// 任一成交缺少收盘价或收盘价非法时整体失败，返回 *price.ResolutionError。
func Enrich(fills []fill.Fill, prices *price.Table, opts Options) ([]EnrichedFill, error) {
	var missing, invalid []price.Key
	seen := make(map[price.Key]struct{})

	out := make([]EnrichedFill, len(fills))
	for i, f := range fills {
		close, ok := prices.Lookup(f.Date, f.Instrument)
		if !ok || !(close > 0) || math.IsInf(close, 0) {
			key := price.Key{Date: f.Date, Instrument: f.Instrument}
			if _, dup := seen[key]; !dup {
				seen[key] = struct{}{}
				if ok {
					invalid = append(invalid, key)
				} else {
					missing = append(missing, key)
				}
			}
			continue
		}
		out[i] = enrichOne(f, close, opts)
	}

	if len(missing) > 0 || len(invalid) > 0 {
		return nil, &price.ResolutionError{Missing: missing, Invalid: invalid}
	}
	return out, nil
}

func enrichOne(f fill.Fill, close float64, opts Options) EnrichedFill {
	qty := f.Quantity(opts.DefaultSize)
	signed := qty * f.Side.Sign()
	notional := qty * f.Price
	pnl := signed * (close - f.Price)

	perNotional := math.NaN()
	if notional != 0 {
		perNotional = pnl / notional
	}

	return EnrichedFill{
		Fill:           f,
		Quantity:       qty,
		SignedSize:     signed,
		TradeNotional:  notional,
		Close:          close,
		PnL:            pnl,
		PnLPerNotional: perNotional,
		NetPnL:         pnl - opts.CostRate*qty,
	}
}
