package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"perf-matrix/internal/fill"
	"perf-matrix/internal/metrics"
)

// 支持的输出格式。
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatText = "text"
)

// emptyMessage 为空输入时的说明。
const emptyMessage = "没有成交记录，未生成统计结果"

// Options 控制渲染行为。
type Options struct {
	Format        string
	RollingWindow int // 小于 2 时不输出滚动统计
}

// SummaryView 为汇总统计的输出视图。
type SummaryView struct {
	StartDate           fill.Date `json:"startDate" yaml:"startDate"`
	EndDate             fill.Date `json:"endDate" yaml:"endDate"`
	NTradingDate        int       `json:"nTradingDate" yaml:"nTradingDate"`
	NTradedInstrument   int       `json:"nTradedInstrument" yaml:"nTradedInstrument"`
	AvgTradeQty         Number    `json:"avgTradeQty" yaml:"avgTradeQty"`
	AvgTradeNotional    Number    `json:"avgTradeNotional" yaml:"avgTradeNotional"`
	TotalPnL            Number    `json:"totalPnl" yaml:"totalPnl"`
	TotalNetPnL         Number    `json:"totalNetPnl" yaml:"totalNetPnl"`
	PnLPerNotional      Number    `json:"pnlPerNotional" yaml:"pnlPerNotional"`
	AvgGrossMarketValue Number    `json:"avgGrossMarketValue" yaml:"avgGrossMarketValue"`
	AvgNetMarketValue   Number    `json:"avgNetMarketValue" yaml:"avgNetMarketValue"`
	SharpeRatio         Number    `json:"sharpeRatio" yaml:"sharpeRatio"`
	WinRate             Number    `json:"winRate" yaml:"winRate"`
	MaxDrawdown         Number    `json:"maxDrawdown" yaml:"maxDrawdown"`
}

// DayView 为按日明细的输出视图，合并成交量、市值、盈亏三张日表。
type DayView struct {
	Date             fill.Date `json:"date" yaml:"date"`
	TotalSize        Number    `json:"totalSize" yaml:"totalSize"`
	TotalNotional    Number    `json:"totalNotional" yaml:"totalNotional"`
	LongMarketValue  Number    `json:"longMarketValue" yaml:"longMarketValue"`
	ShortMarketValue Number    `json:"shortMarketValue" yaml:"shortMarketValue"`
	PnL              Number    `json:"pnl" yaml:"pnl"`
	NetPnL           Number    `json:"netPnl" yaml:"netPnl"`
	Cumulative       Number    `json:"cumulative" yaml:"cumulative"`
	Drawdown         Number    `json:"drawdown" yaml:"drawdown"`
	RollingMean      *Number   `json:"rollingMean,omitempty" yaml:"rollingMean,omitempty"`
	RollingStdDev    *Number   `json:"rollingStdDev,omitempty" yaml:"rollingStdDev,omitempty"`
}

// Document 为一次运行的完整输出。
type Document struct {
	Status  metrics.Status `json:"status" yaml:"status"`
	Message string         `json:"message,omitempty" yaml:"message,omitempty"`
	Summary *SummaryView   `json:"summary,omitempty" yaml:"summary,omitempty"`
	Daily   []DayView      `json:"daily,omitempty" yaml:"daily,omitempty"`
}

// NewDocument 将计算结果转换为输出视图。
func NewDocument(result metrics.Result, rollingWindow int) (Document, error) {
	if result.Empty() {
		return Document{Status: metrics.StatusEmptyInput, Message: emptyMessage}, nil
	}

	doc := Document{
		Status:  result.Status,
		Summary: NewSummaryView(result.Summary),
	}

	volume := make(map[fill.Date]metrics.DailyVolume, len(result.Volume))
	for _, v := range result.Volume {
		volume[v.Date] = v
	}
	marketValue := make(map[fill.Date]metrics.DailyMarketValue, len(result.MarketValue))
	for _, mv := range result.MarketValue {
		marketValue[mv.Date] = mv
	}

	var rolling []RollingPoint
	if rollingWindow >= 2 {
		var err error
		rolling, err = RollingStats(result.DailyPnL, rollingWindow)
		if err != nil {
			return Document{}, err
		}
	}

	doc.Daily = make([]DayView, 0, len(result.DailyPnL))
	for i, d := range result.DailyPnL {
		v := volume[d.Date]
		mv := marketValue[d.Date]
		day := DayView{
			Date:             d.Date,
			TotalSize:        Number(v.TotalSize),
			TotalNotional:    Number(v.TotalNotional),
			LongMarketValue:  Number(mv.LongMarketValue),
			ShortMarketValue: Number(mv.ShortMarketValue),
			PnL:              Number(d.PnL),
			NetPnL:           Number(d.NetPnL),
			Cumulative:       Number(d.Cumulative),
			Drawdown:         Number(d.Drawdown),
		}
		if rolling != nil {
			mean, std := Number(rolling[i].Mean), Number(rolling[i].StdDev)
			day.RollingMean, day.RollingStdDev = &mean, &std
		}
		doc.Daily = append(doc.Daily, day)
	}
	return doc, nil
}

// NewSummaryView 将汇总统计转换为输出视图，NaN 字段在 JSON 中输出为 null。
func NewSummaryView(s metrics.Summary) *SummaryView {
	return &SummaryView{
		StartDate:           s.StartDate,
		EndDate:             s.EndDate,
		NTradingDate:        s.NTradingDate,
		NTradedInstrument:   s.NTradedInstrument,
		AvgTradeQty:         Number(s.AvgTradeQty),
		AvgTradeNotional:    Number(s.AvgTradeNotional),
		TotalPnL:            Number(s.TotalPnL),
		TotalNetPnL:         Number(s.TotalNetPnL),
		PnLPerNotional:      Number(s.PnLPerNotional),
		AvgGrossMarketValue: Number(s.AvgGrossMarketValue),
		AvgNetMarketValue:   Number(s.AvgNetMarketValue),
		SharpeRatio:         Number(s.SharpeRatio),
		WinRate:             Number(s.WinRate),
		MaxDrawdown:         Number(s.MaxDrawdown),
	}
}

// Render 按指定格式输出计算结果。
func Render(w io.Writer, result metrics.Result, opts Options) error {
	doc, err := NewDocument(result, opts.RollingWindow)
	if err != nil {
		return err
	}

	switch opts.Format {
	case FormatYAML, "":
		return writeYAML(w, doc)
	case FormatJSON:
		return writeJSON(w, doc)
	case FormatText:
		return writeText(w, doc)
	default:
		return fmt.Errorf("report: 不支持的输出格式 %q", opts.Format)
	}
}

func writeYAML(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("report: YAML 编码失败: %w", err)
	}
	return enc.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("report: JSON 编码失败: %w", err)
	}
	return nil
}

func writeText(w io.Writer, doc Document) error {
	if doc.Summary == nil {
		_, err := fmt.Fprintf(w, "status: %s\n%s\n", doc.Status, doc.Message)
		return err
	}

	s := doc.Summary
	summary := newTable(w, []string{"metric", "value"})
	summary.AppendBulk([][]string{
		{"startDate", s.StartDate.String()},
		{"endDate", s.EndDate.String()},
		{"nTradingDate", strconv.Itoa(s.NTradingDate)},
		{"nTradedInstrument", strconv.Itoa(s.NTradedInstrument)},
		{"avgTradeQty", s.AvgTradeQty.String()},
		{"avgTradeNotional", s.AvgTradeNotional.String()},
		{"totalPnl", s.TotalPnL.String()},
		{"totalNetPnl", s.TotalNetPnL.String()},
		{"pnlPerNotional", s.PnLPerNotional.String()},
		{"avgGrossMarketValue", s.AvgGrossMarketValue.String()},
		{"avgNetMarketValue", s.AvgNetMarketValue.String()},
		{"sharpeRatio", s.SharpeRatio.String()},
		{"winRate", s.WinRate.String()},
		{"maxDrawdown", s.MaxDrawdown.String()},
	})
	summary.Render()

	if len(doc.Daily) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}

	header := []string{"date", "size", "notional", "lmv", "smv", "pnl", "netPnl", "cumPnl", "drawdown"}
	withRolling := doc.Daily[0].RollingMean != nil
	if withRolling {
		header = append(header, "rollMean", "rollStd")
	}
	daily := newTable(w, header)
	for _, d := range doc.Daily {
		row := []string{
			d.Date.String(),
			d.TotalSize.String(),
			d.TotalNotional.String(),
			d.LongMarketValue.String(),
			d.ShortMarketValue.String(),
			d.PnL.String(),
			d.NetPnL.String(),
			d.Cumulative.String(),
			d.Drawdown.String(),
		}
		if withRolling {
			row = append(row, d.RollingMean.String(), d.RollingStdDev.String())
		}
		daily.Append(row)
	}
	daily.Render()
	return nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	return table
}
