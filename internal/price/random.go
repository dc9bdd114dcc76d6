package price

import (
	"context"
	"fmt"
	"math/rand"

	"perf-matrix/internal/fill"
)

// RandomResolver 生成 [Min, Max) 区间内的均匀随机收盘价，用于演示与压测。
// 相同 Seed 与相同请求得到相同结果。
type RandomResolver struct {
	Seed int64
	Min  float64
	Max  float64
}

// NewRandomResolver 创建随机价格源，区间非法时返回错误。
func NewRandomResolver(seed int64, min, max float64) (*RandomResolver, error) {
	if !(min > 0) || !(max > min) {
		return nil, fmt.Errorf("price: 随机价格区间非法 [%v, %v)", min, max)
	}
	return &RandomResolver{Seed: seed, Min: min, Max: max}, nil
}

// Resolve 按排序后的 (日期, 标的) 顺序依次取随机数。
func (r *RandomResolver) Resolve(ctx context.Context, dates []fill.Date, instruments []string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(r.Seed))
	span := r.Max - r.Min

	table := NewTable()
	for _, key := range CrossProduct(dates, instruments) {
		table.Set(key.Date, key.Instrument, r.Min+rng.Float64()*span)
	}
	return table, nil
}
