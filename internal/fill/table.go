package fill

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// 必需列名。
const (
	ColumnDate       = "date"
	ColumnInstrument = "instrument"
	ColumnSide       = "side"
	ColumnSize       = "size"
	ColumnPrice      = "price"
)

// RequiredColumns 为成交表必须包含的列。
var RequiredColumns = []string{ColumnDate, ColumnInstrument, ColumnSide, ColumnSize, ColumnPrice}

var columnAliases = map[string]string{
	"symbol": ColumnInstrument,
}

// Table 为原始表格输入，所有单元格均为字符串。
type Table struct {
	Source string
	Header []string
	Rows   [][]string
}

// columns 解析表头，返回列名到下标的映射以及缺失的必需列。
func (t Table) columns() (map[string]int, []string) {
	index := make(map[string]int, len(t.Header))
	for i, name := range t.Header {
		key := strings.ToLower(strings.TrimSpace(name))
		if alias, ok := columnAliases[key]; ok {
			key = alias
		}
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	sort.Strings(missing)
	return index, missing
}

// parse 将表格转换为成交列表，逐行累积错误。
func (t Table) parse() ([]Fill, error) {
	index, missing := t.columns()
	if len(missing) > 0 {
		return nil, &SchemaError{Source: t.Source, Missing: missing}
	}

	fills := make([]Fill, 0, len(t.Rows))
	var errs error
	for i, row := range t.Rows {
		f, err := parseRow(row, index)
		if err != nil {
			errs = multierr.Append(errs, &RowError{Row: i + 1, Err: err})
			continue
		}
		fills = append(fills, f)
	}
	if errs != nil {
		return nil, fmt.Errorf("fill: %s 数据校验失败: %w", t.sourceName(), errs)
	}
	return fills, nil
}

func (t Table) sourceName() string {
	if t.Source == "" {
		return "input"
	}
	return t.Source
}

func parseRow(row []string, index map[string]int) (Fill, error) {
	cell := func(col string) string {
		i := index[col]
		if i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var f Fill
	var err error

	f.Date, err = ParseDate(cell(ColumnDate))
	if err != nil {
		return Fill{}, err
	}

	f.Instrument = cell(ColumnInstrument)

	f.Side, err = ParseSide(cell(ColumnSide))
	if err != nil {
		return Fill{}, err
	}

	if raw := cell(ColumnSize); raw == "" {
		f.SizeMissing = true
	} else {
		size, parseErr := strconv.ParseFloat(raw, 64)
		if parseErr != nil {
			return Fill{}, fmt.Errorf("size %q 不是数字", raw)
		}
		f.Size = size
		f.SizeMissing = math.IsNaN(size)
	}

	raw := cell(ColumnPrice)
	f.Price, err = strconv.ParseFloat(raw, 64)
	if err != nil {
		return Fill{}, fmt.Errorf("price %q 不是数字", raw)
	}

	if err := f.Validate(); err != nil {
		return Fill{}, err
	}
	return f, nil
}

// ReadCSV 从 CSV 读取成交表，首行为表头。
func ReadCSV(r io.Reader, source string) (Table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	table := Table{Source: source}

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return table, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("fill: 读取 %s 表头失败: %w", source, err)
	}
	table.Header = header

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("fill: 读取 %s 失败: %w", source, err)
		}
		table.Rows = append(table.Rows, record)
	}

	return table, nil
}

// LoadCSV 打开文件并读取成交表。
func LoadCSV(path string) (Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("fill: 打开 %q 失败: %w", path, err)
	}
	defer file.Close()

	return ReadCSV(file, path)
}
