package price

import (
	"context"
	"sort"

	"perf-matrix/internal/fill"
)

// Key 标识某个交易日某个标的的收盘价。
type Key struct {
	Date       fill.Date
	Instrument string
}

// Quote 为一条收盘价记录。
type Quote struct {
	Date       fill.Date `json:"date" yaml:"date"`
	Instrument string    `json:"instrument" yaml:"instrument"`
	Close      float64   `json:"close" yaml:"close"`
}

// Table 保存 (日期, 标的) -> 收盘价。
type Table struct {
	closes map[Key]float64
}

// NewTable 创建空价格表。
func NewTable() *Table {
	return &Table{closes: make(map[Key]float64)}
}

// Set 写入收盘价，重复写入以最后一次为准。
func (t *Table) Set(date fill.Date, instrument string, close float64) {
	t.closes[Key{Date: date, Instrument: instrument}] = close
}

// Lookup 查询收盘价。
func (t *Table) Lookup(date fill.Date, instrument string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	v, ok := t.closes[Key{Date: date, Instrument: instrument}]
	return v, ok
}

// Len 返回记录条数。
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.closes)
}

// Quotes 返回按 (日期, 标的) 排序的全部收盘价。
func (t *Table) Quotes() []Quote {
	if t == nil {
		return nil
	}
	quotes := make([]Quote, 0, len(t.closes))
	for k, v := range t.closes {
		quotes = append(quotes, Quote{Date: k.Date, Instrument: k.Instrument, Close: v})
	}
	sort.Slice(quotes, func(i, j int) bool {
		if c := quotes[i].Date.Compare(quotes[j].Date); c != 0 {
			return c < 0
		}
		return quotes[i].Instrument < quotes[j].Instrument
	})
	return quotes
}

// Keys 返回按 (日期, 标的) 排序的全部键。
func (t *Table) Keys() []Key {
	quotes := t.Quotes()
	keys := make([]Key, len(quotes))
	for i, q := range quotes {
		keys[i] = Key{Date: q.Date, Instrument: q.Instrument}
	}
	return keys
}

// Resolver 为请求的日期 × 标的组合提供收盘价。
// 实现必须覆盖完整的笛卡尔积，每个组合一个大于 0 的价格。
type Resolver interface {
	Resolve(ctx context.Context, dates []fill.Date, instruments []string) (*Table, error)
}

// ResolverFunc 允许使用函数作为 Resolver。
type ResolverFunc func(ctx context.Context, dates []fill.Date, instruments []string) (*Table, error)

func (f ResolverFunc) Resolve(ctx context.Context, dates []fill.Date, instruments []string) (*Table, error) {
	return f(ctx, dates, instruments)
}

// CrossProduct 按日期、标的排序展开全部组合，保证遍历顺序确定。
func CrossProduct(dates []fill.Date, instruments []string) []Key {
	ds := append([]fill.Date(nil), dates...)
	sort.Slice(ds, func(i, j int) bool { return ds[i].Before(ds[j]) })
	ins := append([]string(nil), instruments...)
	sort.Strings(ins)

	keys := make([]Key, 0, len(ds)*len(ins))
	for _, d := range ds {
		for _, inst := range ins {
			keys = append(keys, Key{Date: d, Instrument: inst})
		}
	}
	return keys
}
