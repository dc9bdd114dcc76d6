package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"perf-matrix/internal/fill"
	"perf-matrix/internal/price"
)

// InsertClosePrices 写入收盘价，同一 (日期, 标的) 覆盖旧值。
func (s *Store) InsertClosePrices(ctx context.Context, table string, prices *price.Table) error {
	if err := checkIdent(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: 开启事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (date, instrument, close) VALUES (?, ?, ?)", table))
	if err != nil {
		return fmt.Errorf("store: 准备写入语句失败: %w", err)
	}
	defer stmt.Close()

	for _, q := range prices.Quotes() {
		if _, err := stmt.ExecContext(ctx, q.Date.String(), q.Instrument, q.Close); err != nil {
			return fmt.Errorf("store: 写入收盘价失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: 提交事务失败: %w", err)
	}
	return nil
}

// PriceResolver 从 SQLite 收盘价表中读取价格。
type PriceResolver struct {
	store  *Store
	table  string
	logger *zap.Logger
}

// NewPriceResolver 创建基于 SQLite 的价格源。
func NewPriceResolver(s *Store, table string, logger *zap.Logger) (*PriceResolver, error) {
	if s == nil {
		return nil, fmt.Errorf("store: 价格源缺少数据库连接")
	}
	if err := checkIdent(table); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceResolver{store: s, table: table, logger: logger}, nil
}

// Resolve 读取日期区间内的收盘价，只保留请求的组合。
// 未覆盖的组合留空，由 price.Verify 判定。
func (r *PriceResolver) Resolve(ctx context.Context, dates []fill.Date, instruments []string) (*price.Table, error) {
	out := price.NewTable()
	if len(dates) == 0 || len(instruments) == 0 {
		return out, nil
	}

	wantDate := make(map[fill.Date]struct{}, len(dates))
	start, end := dates[0], dates[0]
	for _, d := range dates {
		wantDate[d] = struct{}{}
		if d.Before(start) {
			start = d
		}
		if d.After(end) {
			end = d
		}
	}
	wantInstrument := make(map[string]struct{}, len(instruments))
	for _, inst := range instruments {
		wantInstrument[inst] = struct{}{}
	}

	// 日期以 YYYY-MM-DD 文本存储，区间过滤后再用 ParseDate 归一化
	rows, err := r.store.db.QueryContext(ctx, fmt.Sprintf(
		"SELECT date, instrument, close FROM %s WHERE date >= ? AND date < ?", r.table),
		start.String(), end.AddDays(1).String())
	if err != nil {
		return nil, fmt.Errorf("store: 查询收盘价失败: %w", err)
	}
	defer rows.Close()

	var scanned int
	for rows.Next() {
		var rawDate, inst string
		var close float64
		if err := rows.Scan(&rawDate, &inst, &close); err != nil {
			return nil, fmt.Errorf("store: 读取收盘价失败: %w", err)
		}
		scanned++

		d, err := fill.ParseDate(rawDate)
		if err != nil {
			r.logger.Warn("收盘价日期无法解析，已跳过", zap.String("date", rawDate), zap.String("instrument", inst))
			continue
		}
		if _, ok := wantDate[d]; !ok {
			continue
		}
		if _, ok := wantInstrument[inst]; !ok {
			continue
		}
		out.Set(d, inst, close)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: 遍历收盘价失败: %w", err)
	}

	r.logger.Debug("已从 SQLite 读取收盘价",
		zap.String("table", r.table),
		zap.Int("scanned", scanned),
		zap.Int("matched", out.Len()),
	)
	return out, nil
}
