package fill

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Side 表示成交方向。
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// ParseSide 解析方向字段，大小写不敏感。
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "buy", "b":
		return SideBuy, nil
	case "sell", "s":
		return SideSell, nil
	default:
		return "", fmt.Errorf("方向 %q 非法，应为 buy 或 sell", s)
	}
}

// Sign 买入为 +1，卖出为 -1。
func (s Side) Sign() float64 {
	if s == SideBuy {
		return 1
	}
	return -1
}

// Fill 为一笔成交记录，进入 Store 后不再修改。
type Fill struct {
	Seq         int     // 到达顺序，由 Store 分配
	Date        Date    // 成交日期
	Instrument  string  // 标的代码
	Side        Side    // 买卖方向
	Size        float64 // 成交数量
	SizeMissing bool    // 数量缺失时按默认值计
	Price       float64 // 成交价
}

// Quantity 返回成交数量，缺失时返回 defaultSize。
func (f Fill) Quantity(defaultSize float64) float64 {
	if f.SizeMissing || math.IsNaN(f.Size) {
		return defaultSize
	}
	return f.Size
}

// Validate 校验单笔成交的取值。
func (f Fill) Validate() error {
	if f.Date.IsZero() {
		return errors.New("date 不能为空")
	}
	if strings.TrimSpace(f.Instrument) == "" {
		return errors.New("instrument 不能为空")
	}
	if f.Side != SideBuy && f.Side != SideSell {
		return fmt.Errorf("side 取值非法: %q", f.Side)
	}
	if !f.SizeMissing && !math.IsNaN(f.Size) && (f.Size < 0 || math.IsInf(f.Size, 0)) {
		return fmt.Errorf("size 必须为非负有限数，当前为 %v", f.Size)
	}
	if !(f.Price > 0) || math.IsInf(f.Price, 0) {
		return fmt.Errorf("price 必须为正的有限数，当前为 %v", f.Price)
	}
	return nil
}
