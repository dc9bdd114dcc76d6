package store

import (
	"context"
	"database/sql"
	"fmt"

	"perf-matrix/internal/fill"
)

// LoadFills 读取整张成交表并转换为 fill.Table。
// 表头直接取自查询结果的列名，缺列由 fill.NewStore 报告 SchemaError；
// 行按 rowid 排序，即写入顺序。
func (s *Store) LoadFills(ctx context.Context, table string) (fill.Table, error) {
	if err := checkIdent(table); err != nil {
		return fill.Table{}, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %s ORDER BY rowid", table))
	if err != nil {
		return fill.Table{}, fmt.Errorf("store: 查询成交表 %s 失败: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return fill.Table{}, fmt.Errorf("store: 读取列名失败: %w", err)
	}

	out := fill.Table{Source: "sqlite:" + table, Header: columns}
	cells := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i := range cells {
		dest[i] = &cells[i]
	}

	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return fill.Table{}, fmt.Errorf("store: 读取成交记录失败: %w", err)
		}
		record := make([]string, len(cells))
		for i, c := range cells {
			if c.Valid {
				record[i] = c.String
			}
		}
		out.Rows = append(out.Rows, record)
	}
	if err := rows.Err(); err != nil {
		return fill.Table{}, fmt.Errorf("store: 遍历成交记录失败: %w", err)
	}

	return out, nil
}

// InsertFills 批量写入成交，数量缺失时写入 NULL。
func (s *Store) InsertFills(ctx context.Context, table string, fills []fill.Fill) error {
	if err := checkIdent(table); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: 开启事务失败: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (date, instrument, side, size, price) VALUES (?, ?, ?, ?, ?)", table))
	if err != nil {
		return fmt.Errorf("store: 准备写入语句失败: %w", err)
	}
	defer stmt.Close()

	for _, f := range fills {
		var size any
		if !f.SizeMissing {
			size = f.Size
		}
		if _, err := stmt.ExecContext(ctx, f.Date.String(), f.Instrument, string(f.Side), size, f.Price); err != nil {
			return fmt.Errorf("store: 写入成交失败: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: 提交事务失败: %w", err)
	}
	return nil
}
