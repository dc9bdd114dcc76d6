package exchange

import (
	"strings"
	"time"
)

// Timeframe1d 为日线周期，收盘价取自日线 close。
const Timeframe1d = "1d"

// pageLimit 为单次拉取日线的根数上限。
const pageLimit int64 = 500

// Candle 代表单根K线。
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// DefaultSymbol 将标的代码映射为 U 本位永续合约符号，例如 BTC -> BTC/USDT:USDT。
// 已经带有 "/" 的代码原样返回。
func DefaultSymbol(instrument, quote string) string {
	inst := strings.ToUpper(strings.TrimSpace(instrument))
	if strings.Contains(inst, "/") {
		return inst
	}
	q := strings.ToUpper(strings.TrimSpace(quote))
	if q == "" {
		q = "USDT"
	}
	return inst + "/" + q + ":" + q
}
