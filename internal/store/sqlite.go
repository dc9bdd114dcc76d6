package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	_ "github.com/mattn/go-sqlite3"

	"perf-matrix/internal/config"
)

// Store 封装 SQLite 连接，只用于读取成交与收盘价输入。
type Store struct {
	db *sql.DB
}

// NewSQLite 根据配置初始化 SQLite 存储。
func NewSQLite(cfg config.DatabaseConfig) (*Store, error) {
	dsn := cfg.Path
	maxOpen := cfg.MaxOpenConns
	if cfg.InMemory {
		// 每个 :memory: 连接都是独立的库，只能保留一个连接
		dsn = ":memory:"
		maxOpen = 1
	} else {
		if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", dsn))
	if err != nil {
		return nil, fmt.Errorf("store: 打开 SQLite 数据库失败: %w", err)
	}

	conn.SetMaxOpenConns(maxOpen)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	if cfg.InMemory {
		conn.SetMaxIdleConns(1)
		conn.SetConnMaxLifetime(0)
	} else {
		conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("store: 设置 SQLite WAL 模式失败: %w", err)
	}

	if _, err := conn.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("store: 设置 SQLite 同步级别失败: %w", err)
	}

	return &Store{db: conn}, nil
}

// DB 返回底层 *sql.DB.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close 关闭数据库连接。
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// InitSchema 创建成交表与收盘价表（已存在则跳过）。
func (s *Store) InitSchema(ctx context.Context, fillTable, priceTable string) error {
	if err := checkIdent(fillTable); err != nil {
		return err
	}
	if err := checkIdent(priceTable); err != nil {
		return err
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			date TEXT NOT NULL,
			instrument TEXT NOT NULL,
			side TEXT NOT NULL,
			size REAL,
			price REAL NOT NULL
		)`, fillTable),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_date ON %s (date)`, fillTable, fillTable),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			date TEXT NOT NULL,
			instrument TEXT NOT NULL,
			close REAL NOT NULL,
			PRIMARY KEY (date, instrument)
		)`, priceTable),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: 初始化表结构失败: %w", err)
		}
	}
	return nil
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// checkIdent 表名会直接拼接进 SQL，只允许普通标识符。
func checkIdent(name string) error {
	if !identPattern.MatchString(name) {
		return fmt.Errorf("store: 非法表名 %q", name)
	}
	return nil
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("store: 创建目录 %q 失败: %w", path, err)
	}
	return nil
}
