package fill

import (
	"fmt"
	"sort"

	"go.uber.org/multierr"
)

// Store 是经过校验的不可变成交集合。
// 成交按 (日期, 到达顺序) 稳定排序，下游的累计持仓与“当日最后一笔”均依赖此顺序。
type Store struct {
	source      string
	fills       []Fill
	instruments []string
	dates       []Date
}

// NewStore 从表格构建 Store，缺列返回 *SchemaError，取值错误返回逐行汇总的错误。
func NewStore(t Table) (*Store, error) {
	fills, err := t.parse()
	if err != nil {
		return nil, err
	}
	return newStore(t.Source, fills), nil
}

// NewStoreFromFills 直接使用成交列表构建 Store，Seq 按切片下标重新分配。
func NewStoreFromFills(fills []Fill) (*Store, error) {
	var errs error
	for i, f := range fills {
		if err := f.Validate(); err != nil {
			errs = multierr.Append(errs, &RowError{Row: i + 1, Err: err})
		}
	}
	if errs != nil {
		return nil, fmt.Errorf("fill: 数据校验失败: %w", errs)
	}

	copied := make([]Fill, len(fills))
	copy(copied, fills)
	return newStore("", copied), nil
}

func newStore(source string, fills []Fill) *Store {
	seenInstrument := make(map[string]struct{})
	seenDate := make(map[Date]struct{})
	var instruments []string
	var dates []Date

	for i := range fills {
		fills[i].Seq = i

		f := fills[i]
		if _, ok := seenInstrument[f.Instrument]; !ok {
			seenInstrument[f.Instrument] = struct{}{}
			instruments = append(instruments, f.Instrument)
		}
		if _, ok := seenDate[f.Date]; !ok {
			seenDate[f.Date] = struct{}{}
			dates = append(dates, f.Date)
		}
	}

	sort.SliceStable(fills, func(i, j int) bool {
		if c := fills[i].Date.Compare(fills[j].Date); c != 0 {
			return c < 0
		}
		return fills[i].Seq < fills[j].Seq
	})
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	return &Store{
		source:      source,
		fills:       fills,
		instruments: instruments,
		dates:       dates,
	}
}

// Source 返回数据来源描述。
func (s *Store) Source() string { return s.source }

// Len 返回成交笔数。
func (s *Store) Len() int { return len(s.fills) }

// Empty 判断是否没有任何成交。
func (s *Store) Empty() bool { return len(s.fills) == 0 }

// Fills 返回按 (日期, 到达顺序) 排序的成交副本。
func (s *Store) Fills() []Fill {
	out := make([]Fill, len(s.fills))
	copy(out, s.fills)
	return out
}

// Instruments 返回去重后的标的，按首次出现顺序。
func (s *Store) Instruments() []string {
	return append([]string(nil), s.instruments...)
}

// Dates 返回去重后的交易日，升序。
func (s *Store) Dates() []Date {
	return append([]Date(nil), s.dates...)
}

// StartDate 返回最早交易日，空集合返回零值。
func (s *Store) StartDate() Date {
	if len(s.dates) == 0 {
		return Date{}
	}
	return s.dates[0]
}

// EndDate 返回最晚交易日，空集合返回零值。
func (s *Store) EndDate() Date {
	if len(s.dates) == 0 {
		return Date{}
	}
	return s.dates[len(s.dates)-1]
}
