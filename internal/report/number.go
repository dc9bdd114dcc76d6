package report

import (
	"math"

	"github.com/shopspring/decimal"
)

// displayPlaces 为文本输出保留的小数位数。
const displayPlaces = 4

// Number 为输出用的浮点数。
// JSON 中 NaN/Inf 输出为 null，YAML 中保持 .nan，文本中输出 NaN。
type Number float64

func (n Number) undefined() bool {
	f := float64(n)
	return math.IsNaN(f) || math.IsInf(f, 0)
}

func (n Number) MarshalJSON() ([]byte, error) {
	if n.undefined() {
		return []byte("null"), nil
	}
	return []byte(decimal.NewFromFloat(float64(n)).String()), nil
}

func (n Number) MarshalYAML() (interface{}, error) {
	return float64(n), nil
}

// String 按固定小数位四舍五入，便于阅读。
func (n Number) String() string {
	f := float64(n)
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "+Inf"
	case math.IsInf(f, -1):
		return "-Inf"
	}
	return decimal.NewFromFloat(f).Round(displayPlaces).String()
}
