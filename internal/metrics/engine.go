package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"perf-matrix/internal/fill"
	"perf-matrix/internal/price"
)

// Engine 串联 收盘价 -> 补充 -> 持仓 -> 日汇总 -> 统计 的计算流程。
// Engine 不持有可变状态，可被多次、并发调用。
type Engine struct {
	opts     Options
	resolver price.Resolver
	logger   *zap.Logger
}

// NewEngine 创建计算引擎。
func NewEngine(opts Options, resolver price.Resolver, logger *zap.Logger) (*Engine, error) {
	if resolver == nil {
		return nil, errors.New("metrics: 价格源不能为空")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{opts: opts, resolver: resolver, logger: logger}, nil
}

// Run 对 store 中的成交执行一次完整计算。
// 无成交时返回 StatusEmptyInput，不调用价格源。
func (e *Engine) Run(ctx context.Context, store *fill.Store) (Result, error) {
	if store == nil || store.Empty() {
		e.logger.Info("无成交记录，跳过统计")
		return Result{Status: StatusEmptyInput}, nil
	}

	start := time.Now()
	dates := store.Dates()
	instruments := store.Instruments()

	prices, err := e.resolver.Resolve(ctx, dates, instruments)
	if err != nil {
		return Result{}, fmt.Errorf("metrics: 获取收盘价失败: %w", err)
	}
	if err := price.Verify(prices, dates, instruments); err != nil {
		return Result{}, fmt.Errorf("metrics: 收盘价校验失败: %w", err)
	}
	e.logger.Debug("收盘价就绪",
		zap.Int("dates", len(dates)),
		zap.Int("instruments", len(instruments)),
		zap.Int("quotes", prices.Len()),
	)

	enriched, err := Enrich(store.Fills(), prices, e.opts)
	if err != nil {
		return Result{}, fmt.Errorf("metrics: 成交补充失败: %w", err)
	}
	e.logger.Debug("成交补充完成", zap.Int("fills", len(enriched)))

	enriched, err = TrackPositions(ctx, enriched)
	if err != nil {
		return Result{}, fmt.Errorf("metrics: 持仓计算失败: %w", err)
	}
	snapshots := Snapshots(enriched)
	e.logger.Debug("持仓快照完成", zap.Int("snapshots", len(snapshots)))

	volume := AggregateVolume(enriched)
	marketValue := AggregateMarketValue(snapshots)
	daily := DailyPnLSeries(enriched)
	e.logger.Debug("日度汇总完成", zap.Int("days", len(daily)))

	summary := Summarize(store, enriched, volume, marketValue)

	e.logger.Info("绩效统计完成",
		zap.Stringer("start", summary.StartDate),
		zap.Stringer("end", summary.EndDate),
		zap.Int("fills", store.Len()),
		zap.Float64("total_pnl", summary.TotalPnL),
		zap.Duration("latency", time.Since(start)),
	)

	return Result{
		Status:      StatusComputed,
		Summary:     summary,
		Prices:      prices,
		Enriched:    enriched,
		Snapshots:   snapshots,
		Volume:      volume,
		MarketValue: marketValue,
		DailyPnL:    daily,
	}, nil
}
