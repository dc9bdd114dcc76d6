package price

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"perf-matrix/internal/fill"
)

// ErrPriceResolution 表示价格表未能满足覆盖要求。
var ErrPriceResolution = errors.New("price: 收盘价解析失败")

// ResolutionError 列出缺失或取值非法的组合。
type ResolutionError struct {
	Missing []Key
	Invalid []Key
}

func (e *ResolutionError) Error() string {
	var b strings.Builder
	b.WriteString("price: 收盘价不完整")
	if len(e.Missing) > 0 {
		fmt.Fprintf(&b, "，缺失 %d 个组合: %s", len(e.Missing), formatKeys(e.Missing))
	}
	if len(e.Invalid) > 0 {
		fmt.Fprintf(&b, "，非法取值 %d 个组合: %s", len(e.Invalid), formatKeys(e.Invalid))
	}
	return b.String()
}

// Is 使 errors.Is(err, ErrPriceResolution) 成立。
func (e *ResolutionError) Is(target error) bool {
	return target == ErrPriceResolution
}

const maxListedKeys = 5

func formatKeys(keys []Key) string {
	parts := make([]string, 0, maxListedKeys+1)
	for i, k := range keys {
		if i == maxListedKeys {
			parts = append(parts, "...")
			break
		}
		parts = append(parts, fmt.Sprintf("%s/%s", k.Date, k.Instrument))
	}
	return strings.Join(parts, ", ")
}

// Verify 检查价格表是否完整覆盖 dates × instruments 且取值为正的有限数。
func Verify(table *Table, dates []fill.Date, instruments []string) error {
	var missing, invalid []Key
	for _, key := range CrossProduct(dates, instruments) {
		close, ok := table.Lookup(key.Date, key.Instrument)
		switch {
		case !ok:
			missing = append(missing, key)
		case !(close > 0) || math.IsInf(close, 0):
			invalid = append(invalid, key)
		}
	}
	if len(missing) == 0 && len(invalid) == 0 {
		return nil
	}
	return &ResolutionError{Missing: missing, Invalid: invalid}
}
