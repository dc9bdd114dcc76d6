package fill

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSchema 表示输入表缺少必需列。
var ErrSchema = errors.New("fill: 输入表缺少必需列")

// SchemaError 列出缺失的全部必需列。
type SchemaError struct {
	Source  string
	Missing []string
}

func (e *SchemaError) Error() string {
	source := e.Source
	if source == "" {
		source = "input"
	}
	return fmt.Sprintf("fill: %s 缺少必需列: %s", source, strings.Join(e.Missing, ", "))
}

// Is 使 errors.Is(err, ErrSchema) 成立。
func (e *SchemaError) Is(target error) bool {
	return target == ErrSchema
}

// RowError 描述某一行数据的取值问题，Row 从 1 开始计数（不含表头）。
type RowError struct {
	Row int
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("第 %d 行: %v", e.Row, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
