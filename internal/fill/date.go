package fill

import (
	"fmt"
	"strings"
	"time"
)

// DateFormat 为日期的标准输出格式。
const DateFormat = "2006-01-02"

// 读取时允许 2024-1-2 这样的单数字月/日。
const readDateFormat = "2006-1-2"

// Date 表示不含时刻的自然日。
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate 返回规范化后的日期，例如 1 月 32 日会变为 2 月 1 日。
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{y: t.Year(), m: t.Month(), d: t.Day()}
}

// DateOf 截取 t 在其所在时区的日期部分。
func DateOf(t time.Time) Date {
	return NewDate(t.Date())
}

// ParseDate 解析日期字符串。
// 兼容带时刻的写法（"2024-01-01 00:00:00"、"2024-01-01T00:00:00Z"），时刻部分被丢弃。
func ParseDate(s string) (Date, error) {
	str := strings.TrimSpace(s)
	if idx := strings.IndexAny(str, "T "); idx > 0 {
		str = str[:idx]
	}
	t, err := time.Parse(readDateFormat, str)
	if err != nil {
		return Date{}, fmt.Errorf("日期 %q 格式非法，应为 %s: %w", s, DateFormat, err)
	}
	return DateOf(t), nil
}

// MustParseDate 与 ParseDate 相同，解析失败时 panic，仅用于测试与常量。
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

func (d Date) Year() int          { return d.y }
func (d Date) Month() time.Month  { return d.m }
func (d Date) Day() int           { return d.d }
func (d Date) IsZero() bool       { return d == Date{} }
func (d Date) Before(x Date) bool { return d.Compare(x) < 0 }
func (d Date) After(x Date) bool  { return d.Compare(x) > 0 }

// Time 返回该日 UTC 零点。
func (d Date) Time() time.Time {
	return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC)
}

// AddDays 返回 n 天之后的日期，n 可为负。
func (d Date) AddDays(n int) Date {
	return NewDate(d.y, d.m, d.d+n)
}

// Compare 返回 -1、0 或 1。
func (d Date) Compare(x Date) int {
	switch {
	case d.y != x.y:
		return cmpInt(d.y, x.y)
	case d.m != x.m:
		return cmpInt(int(d.m), int(x.m))
	default:
		return cmpInt(d.d, x.d)
	}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time().Format(DateFormat)
}

// MarshalText 同时服务于 JSON 与 YAML 编码。
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
