package price

import (
	"context"
	"fmt"
	"math"

	"perf-matrix/internal/fill"
)

// FixedResolver 使用预先给定的价格。
// table 非空时按表返回（只截取请求的组合），否则对所有组合返回 constant。
type FixedResolver struct {
	table    *Table
	constant float64
}

// FromTable 使用调用方提供的价格表，缺失组合由 Verify 在下游报告。
func FromTable(t *Table) *FixedResolver {
	if t == nil {
		t = NewTable()
	}
	return &FixedResolver{table: t}
}

// Constant 对所有组合返回同一个收盘价。
func Constant(close float64) (*FixedResolver, error) {
	if !(close > 0) || math.IsInf(close, 0) {
		return nil, fmt.Errorf("price: 固定收盘价必须为正数: %v", close)
	}
	return &FixedResolver{constant: close}, nil
}

func (r *FixedResolver) Resolve(ctx context.Context, dates []fill.Date, instruments []string) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := NewTable()
	for _, key := range CrossProduct(dates, instruments) {
		if r.table == nil {
			out.Set(key.Date, key.Instrument, r.constant)
			continue
		}
		if close, ok := r.table.Lookup(key.Date, key.Instrument); ok {
			out.Set(key.Date, key.Instrument, close)
		}
	}
	return out, nil
}
