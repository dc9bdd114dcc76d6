package exchange

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"perf-matrix/internal/config"
	"perf-matrix/internal/fill"
	"perf-matrix/internal/price"
)

// defaultFetchConcurrency 为同时拉取的标的数上限，避免触发限频。
const defaultFetchConcurrency = 4

// CloseFetcher 拉取单个交易对在日期区间内的日线收盘价。
type CloseFetcher interface {
	FetchDailyCloses(ctx context.Context, symbol string, since, until fill.Date) (map[fill.Date]float64, error)
}

// PriceResolver 以交易所日线收盘价实现 price.Resolver。
type PriceResolver struct {
	fetcher     CloseFetcher
	symbols     map[string]string
	quote       string
	concurrency int
	logger      *zap.Logger
}

// NewPriceResolver 创建交易所价格源。
// cfg.Symbols 的键由 viper 统一转为小写，查找时也按小写匹配。
func NewPriceResolver(fetcher CloseFetcher, cfg config.ExchangeConfig, logger *zap.Logger) *PriceResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	symbols := make(map[string]string, len(cfg.Symbols))
	for k, v := range cfg.Symbols {
		symbols[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return &PriceResolver{
		fetcher:     fetcher,
		symbols:     symbols,
		quote:       cfg.Quote,
		concurrency: defaultFetchConcurrency,
		logger:      logger,
	}
}

// Symbol 返回标的对应的交易对。
func (r *PriceResolver) Symbol(instrument string) string {
	if s, ok := r.symbols[strings.ToLower(strings.TrimSpace(instrument))]; ok && s != "" {
		return s
	}
	return DefaultSymbol(instrument, r.quote)
}

// Resolve 并发拉取每个标的的日线，按标的下标回填后组装价格表。
// 交易所缺失的日期不做补齐，交给 price.Verify 拒绝。
func (r *PriceResolver) Resolve(ctx context.Context, dates []fill.Date, instruments []string) (*price.Table, error) {
	table := price.NewTable()
	if len(dates) == 0 || len(instruments) == 0 {
		return table, nil
	}

	since, until := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(since) {
			since = d
		}
		if d.After(until) {
			until = d
		}
	}

	results := make([]map[fill.Date]float64, len(instruments))
	start := time.Now()

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)
	for i, inst := range instruments {
		group.Go(func() error {
			symbol := r.Symbol(inst)
			closes, err := r.fetcher.FetchDailyCloses(groupCtx, symbol, since, until)
			if err != nil {
				return fmt.Errorf("exchange: 标的 %s (%s) 收盘价获取失败: %w", inst, symbol, err)
			}
			results[i] = closes
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	for i, inst := range instruments {
		for _, d := range dates {
			if close, ok := results[i][d]; ok {
				table.Set(d, inst, close)
			}
		}
	}

	r.logger.Debug("交易所收盘价获取完成",
		zap.Int("instruments", len(instruments)),
		zap.Int("dates", len(dates)),
		zap.Int("quotes", table.Len()),
		zap.Duration("latency", time.Since(start)),
	)
	return table, nil
}
