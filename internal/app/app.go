package app

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"perf-matrix/internal/ai"
	"perf-matrix/internal/config"
	"perf-matrix/internal/exchange"
	"perf-matrix/internal/fill"
	"perf-matrix/internal/metrics"
	"perf-matrix/internal/price"
	"perf-matrix/internal/store"
)

// App 按配置组装成交来源、价格源与计算引擎。
// SQLite 连接在首次需要时打开，由 Close 释放。
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	storeMu sync.Mutex
	store   *store.Store
}

// New 创建 App 实例。
func New(cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// Config 返回当前配置。
func (a *App) Config() *config.Config {
	return a.cfg
}

// Close 关闭已打开的数据库连接。
func (a *App) Close() error {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()

	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

func (a *App) database(ctx context.Context) (*store.Store, error) {
	a.storeMu.Lock()
	defer a.storeMu.Unlock()

	if a.store != nil {
		return a.store, nil
	}

	s, err := store.NewSQLite(a.cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := s.InitSchema(ctx, a.cfg.Input.Table, a.cfg.Price.Table); err != nil {
		_ = s.Close()
		return nil, err
	}

	a.logger.Debug("SQLite 已就绪",
		zap.String("path", a.cfg.Database.Path),
		zap.Bool("in_memory", a.cfg.Database.InMemory),
	)
	a.store = s
	return s, nil
}

// LoadFills 按 input.source 读取并校验成交。
func (a *App) LoadFills(ctx context.Context) (*fill.Store, error) {
	var (
		table fill.Table
		err   error
	)

	switch a.cfg.Input.Source {
	case config.InputSourceCSV:
		table, err = fill.LoadCSV(a.cfg.Input.Path)
	case config.InputSourceSQLite:
		var db *store.Store
		db, err = a.database(ctx)
		if err == nil {
			table, err = db.LoadFills(ctx, a.cfg.Input.Table)
		}
	default:
		err = fmt.Errorf("app: 不支持的成交来源 %q", a.cfg.Input.Source)
	}
	if err != nil {
		return nil, err
	}

	fills, err := fill.NewStore(table)
	if err != nil {
		return nil, err
	}

	a.logger.Info("成交记录已加载",
		zap.String("source", fills.Source()),
		zap.Int("fills", fills.Len()),
		zap.Int("instruments", len(fills.Instruments())),
		zap.Int("dates", len(fills.Dates())),
	)
	return fills, nil
}

// Resolver 按 price.source 构造价格源。
func (a *App) Resolver(ctx context.Context) (price.Resolver, error) {
	pc := a.cfg.Price

	switch pc.Source {
	case config.PriceSourceRandom:
		return price.NewRandomResolver(pc.Seed, pc.Min, pc.Max)
	case config.PriceSourceConstant:
		return price.Constant(pc.Constant)
	case config.PriceSourceSQLite:
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		return store.NewPriceResolver(db, pc.Table, a.logger)
	case config.PriceSourceExchange:
		client, err := exchange.NewClient(a.cfg.Exchange, a.logger)
		if err != nil {
			return nil, err
		}
		return exchange.NewPriceResolver(client, a.cfg.Exchange, a.logger), nil
	default:
		return nil, fmt.Errorf("app: 不支持的价格来源 %q", pc.Source)
	}
}

// ResolvePrices 为成交覆盖的日期 × 标的获取并校验收盘价。
func (a *App) ResolvePrices(ctx context.Context, fills *fill.Store) (*price.Table, error) {
	resolver, err := a.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	dates, instruments := fills.Dates(), fills.Instruments()
	table, err := resolver.Resolve(ctx, dates, instruments)
	if err != nil {
		return nil, err
	}
	if err := price.Verify(table, dates, instruments); err != nil {
		return nil, err
	}
	return table, nil
}

// SavePrices 将收盘价写入 price.table，供 price.source=sqlite 复用。
func (a *App) SavePrices(ctx context.Context, prices *price.Table) error {
	db, err := a.database(ctx)
	if err != nil {
		return err
	}
	if err := db.InsertClosePrices(ctx, a.cfg.Price.Table, prices); err != nil {
		return err
	}
	a.logger.Info("收盘价已写入 SQLite",
		zap.String("table", a.cfg.Price.Table),
		zap.Int("quotes", prices.Len()),
	)
	return nil
}

// Options 返回指标计算参数。
func (a *App) Options() metrics.Options {
	return metrics.Options{
		CostRate:    a.cfg.Metrics.CostRate,
		DefaultSize: a.cfg.Metrics.DefaultSize,
	}
}

// Engine 构造计算引擎。
func (a *App) Engine(ctx context.Context) (*metrics.Engine, error) {
	resolver, err := a.Resolver(ctx)
	if err != nil {
		return nil, err
	}
	return metrics.NewEngine(a.Options(), resolver, a.logger)
}

// Run 读取成交并完成一次完整计算。
func (a *App) Run(ctx context.Context) (metrics.Result, error) {
	a.logger.Info("开始绩效分析",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("input", a.cfg.Input.Source),
		zap.String("price", a.cfg.Price.Source),
	)

	fills, err := a.LoadFills(ctx)
	if err != nil {
		return metrics.Result{}, err
	}
	engine, err := a.Engine(ctx)
	if err != nil {
		return metrics.Result{}, err
	}
	return engine.Run(ctx, fills)
}

// Reviewer 构造 AI 点评客户端，未配置 openai.api_key 时返回错误。
func (a *App) Reviewer() (*ai.Reviewer, error) {
	return ai.NewReviewer(a.cfg.OpenAI, a.logger)
}
