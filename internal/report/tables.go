package report

import (
	"fmt"
	"io"
	"strconv"

	"perf-matrix/internal/fill"
	"perf-matrix/internal/price"
)

// FillView 为单笔成交的输出视图，数量缺失时 Size 为空。
type FillView struct {
	Seq        int       `json:"seq" yaml:"seq"`
	Date       fill.Date `json:"date" yaml:"date"`
	Instrument string    `json:"instrument" yaml:"instrument"`
	Side       fill.Side `json:"side" yaml:"side"`
	Size       *Number   `json:"size" yaml:"size"`
	Price      Number    `json:"price" yaml:"price"`
}

// QuoteView 为收盘价的输出视图。
type QuoteView struct {
	Date       fill.Date `json:"date" yaml:"date"`
	Instrument string    `json:"instrument" yaml:"instrument"`
	Close      Number    `json:"close" yaml:"close"`
}

// RenderFills 输出经过校验、排序后的成交列表。
func RenderFills(w io.Writer, store *fill.Store, format string) error {
	fills := store.Fills()
	views := make([]FillView, len(fills))
	for i, f := range fills {
		views[i] = FillView{
			Seq:        f.Seq,
			Date:       f.Date,
			Instrument: f.Instrument,
			Side:       f.Side,
			Price:      Number(f.Price),
		}
		if !f.SizeMissing {
			size := Number(f.Size)
			views[i].Size = &size
		}
	}

	switch format {
	case FormatYAML, "":
		return writeYAML(w, views)
	case FormatJSON:
		return writeJSON(w, views)
	case FormatText:
		table := newTable(w, []string{"seq", "date", "instrument", "side", "size", "price"})
		for _, v := range views {
			size := ""
			if v.Size != nil {
				size = v.Size.String()
			}
			table.Append([]string{
				strconv.Itoa(v.Seq), v.Date.String(), v.Instrument, string(v.Side), size, v.Price.String(),
			})
		}
		table.Render()
		return nil
	default:
		return fmt.Errorf("report: 不支持的输出格式 %q", format)
	}
}

// RenderPrices 输出按 (日期, 标的) 排序的收盘价表。
func RenderPrices(w io.Writer, prices *price.Table, format string) error {
	quotes := prices.Quotes()
	views := make([]QuoteView, len(quotes))
	for i, q := range quotes {
		views[i] = QuoteView{Date: q.Date, Instrument: q.Instrument, Close: Number(q.Close)}
	}

	switch format {
	case FormatYAML, "":
		return writeYAML(w, views)
	case FormatJSON:
		return writeJSON(w, views)
	case FormatText:
		table := newTable(w, []string{"date", "instrument", "close"})
		for _, v := range views {
			table.Append([]string{v.Date.String(), v.Instrument, v.Close.String()})
		}
		table.Render()
		return nil
	default:
		return fmt.Errorf("report: 不支持的输出格式 %q", format)
	}
}
