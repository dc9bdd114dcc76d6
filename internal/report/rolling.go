package report

import (
	"fmt"
	"math"

	"github.com/markcheno/go-talib"

	"perf-matrix/internal/fill"
	"perf-matrix/internal/metrics"
)

// RollingPoint 为某日截至当日的滚动窗口统计。
type RollingPoint struct {
	Date   fill.Date
	Mean   float64 // 窗口内日盈亏均值
	StdDev float64 // 窗口内日盈亏总体标准差
}

// RollingStats 计算日盈亏的滚动均值与标准差，窗口未满的日期为 NaN。
func RollingStats(daily []metrics.DailyPnL, window int) ([]RollingPoint, error) {
	if window < 2 {
		return nil, fmt.Errorf("report: 滚动窗口至少为2，当前为 %d", window)
	}

	out := make([]RollingPoint, len(daily))
	values := make([]float64, len(daily))
	for i, d := range daily {
		values[i] = d.PnL
		out[i] = RollingPoint{Date: d.Date, Mean: math.NaN(), StdDev: math.NaN()}
	}
	if len(daily) < window {
		return out, nil
	}

	sma := talib.Sma(values, window)
	std := talib.StdDev(values, window, 1)
	for i := window - 1; i < len(out); i++ {
		out[i].Mean = sma[i]
		out[i].StdDev = std[i]
	}
	return out, nil
}
