package metrics

import (
	"fmt"
	"math"

	"perf-matrix/internal/fill"
	"perf-matrix/internal/price"
)

// DefaultCostRate 为每单位成交数量的固定成本。
const DefaultCostRate = 0.001

// Options 控制指标计算参数。
type Options struct {
	CostRate    float64 // 每单位数量成本，用于 NetPnL
	DefaultSize float64 // 数量缺失时的默认值
}

// DefaultOptions 返回默认参数：成本 0.001，缺失数量按 1 计。
func DefaultOptions() Options {
	return Options{CostRate: DefaultCostRate, DefaultSize: 1}
}

// Validate 校验参数取值。
func (o Options) Validate() error {
	if o.CostRate < 0 || math.IsNaN(o.CostRate) || math.IsInf(o.CostRate, 0) {
		return fmt.Errorf("metrics: cost rate 必须为非负有限数: %v", o.CostRate)
	}
	if !(o.DefaultSize > 0) || math.IsInf(o.DefaultSize, 0) {
		return fmt.Errorf("metrics: default size 必须为正数: %v", o.DefaultSize)
	}
	return nil
}

// EnrichedFill 为补充收盘价与盈亏后的成交。
type EnrichedFill struct {
	fill.Fill

	Quantity       float64 // 实际计入的数量（缺失时为默认值）
	SignedSize     float64
	TradeNotional  float64
	Close          float64
	PnL            float64
	PnLPerNotional float64 // 名义金额为 0 时为 NaN
	NetPnL         float64
	Position       float64 // 由 TrackPositions 填充
}

// PositionSnapshot 为某日某标的最后一笔成交后的持仓估值。
type PositionSnapshot struct {
	Date             fill.Date `json:"date" yaml:"date"`
	Instrument       string    `json:"instrument" yaml:"instrument"`
	Position         float64   `json:"position" yaml:"position"`
	Close            float64   `json:"close" yaml:"close"`
	MarketValue      float64   `json:"marketValue" yaml:"marketValue"`
	LongMarketValue  float64   `json:"longMarketValue" yaml:"longMarketValue"`
	ShortMarketValue float64   `json:"shortMarketValue" yaml:"shortMarketValue"`
}

// DailyVolume 为按日汇总的成交量与名义金额。
type DailyVolume struct {
	Date          fill.Date `json:"date" yaml:"date"`
	TotalSize     float64   `json:"totalSize" yaml:"totalSize"`
	TotalNotional float64   `json:"totalNotional" yaml:"totalNotional"`
}

// DailyMarketValue 为按日汇总的多空市值。
type DailyMarketValue struct {
	Date             fill.Date `json:"date" yaml:"date"`
	LongMarketValue  float64   `json:"longMarketValue" yaml:"longMarketValue"`
	ShortMarketValue float64   `json:"shortMarketValue" yaml:"shortMarketValue"`
}

// Gross 返回总市值（多 + 空）。
func (d DailyMarketValue) Gross() float64 { return d.LongMarketValue + d.ShortMarketValue }

// Net 返回净市值（多 - 空）。
func (d DailyMarketValue) Net() float64 { return d.LongMarketValue - d.ShortMarketValue }

// DailyPnL 为按日汇总的盈亏及回撤序列。
type DailyPnL struct {
	Date       fill.Date `json:"date" yaml:"date"`
	PnL        float64   `json:"pnl" yaml:"pnl"`
	NetPnL     float64   `json:"netPnl" yaml:"netPnl"`
	Cumulative float64   `json:"cumulative" yaml:"cumulative"`
	RunningMax float64   `json:"runningMax" yaml:"runningMax"`
	Drawdown   float64   `json:"drawdown" yaml:"drawdown"`
}

// Summary 为一次分析的汇总统计。
// SharpeRatio 与 PnLPerNotional 在退化输入下为 NaN，不做替换。
type Summary struct {
	StartDate           fill.Date `json:"startDate" yaml:"startDate"`
	EndDate             fill.Date `json:"endDate" yaml:"endDate"`
	NTradingDate        int       `json:"nTradingDate" yaml:"nTradingDate"`
	NTradedInstrument   int       `json:"nTradedInstrument" yaml:"nTradedInstrument"`
	AvgTradeQty         float64   `json:"avgTradeQty" yaml:"avgTradeQty"`
	AvgTradeNotional    float64   `json:"avgTradeNotional" yaml:"avgTradeNotional"`
	TotalPnL            float64   `json:"totalPnl" yaml:"totalPnl"`
	TotalNetPnL         float64   `json:"totalNetPnl" yaml:"totalNetPnl"`
	PnLPerNotional      float64   `json:"pnlPerNotional" yaml:"pnlPerNotional"`
	AvgGrossMarketValue float64   `json:"avgGrossMarketValue" yaml:"avgGrossMarketValue"`
	AvgNetMarketValue   float64   `json:"avgNetMarketValue" yaml:"avgNetMarketValue"`
	SharpeRatio         float64   `json:"sharpeRatio" yaml:"sharpeRatio"`
	WinRate             float64   `json:"winRate" yaml:"winRate"`
	MaxDrawdown         float64   `json:"maxDrawdown" yaml:"maxDrawdown"`
}

// Status 表示一次运行的结果类型。
type Status string

const (
	// StatusComputed 表示已完成计算，Summary 可用。
	StatusComputed Status = "computed"
	// StatusEmptyInput 表示没有任何成交，不产生统计结果。
	StatusEmptyInput Status = "empty_input"
)

// Result 为引擎一次运行的全部产出。
// Status 为 StatusEmptyInput 时除 Status 外均为零值，不应读取 Summary。
type Result struct {
	Status      Status
	Summary     Summary
	Prices      *price.Table
	Enriched    []EnrichedFill
	Snapshots   []PositionSnapshot
	Volume      []DailyVolume
	MarketValue []DailyMarketValue
	DailyPnL    []DailyPnL
}

// Empty 判断是否为空输入结果。
func (r Result) Empty() bool { return r.Status == StatusEmptyInput }

// Stats 返回汇总统计，空输入时第二个返回值为 false。
func (r Result) Stats() (Summary, bool) {
	if r.Status != StatusComputed {
		return Summary{}, false
	}
	return r.Summary, true
}
