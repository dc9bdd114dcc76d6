package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"text/template"

	"perf-matrix/internal/report"
)

const reviewTemplate = `
你是一名资深的交易绩效分析师。下面是一段时间内的成交绩效统计（盈亏按当日收盘价逐笔盯市计算，单位与成交价一致）：

汇总指标：
{{ .SummaryJSON }}

逐日明细：
{{ .DailyJSON }}

指标说明：
- totalPnl / totalNetPnl：逐笔盯市盈亏合计，net 扣除每单位 {{ .CostRate }} 的固定成本；
- pnlPerNotional：总盈亏 / 总成交额；
- sharpeRatio：日盈亏均值 / 样本标准差 × sqrt(交易日数)，null 表示无定义；
- maxDrawdown：累计盈亏相对历史高点的最大回落；
- avgGrossMarketValue / avgNetMarketValue：日终多空市值之和 / 之差的均值。

请完成：
1. 判断整体表现，给出 verdict；
2. 列出最重要的亮点与风险，每条一句话；
3. 给出可执行的改进建议；
4. 样本天数过少或指标无定义时，请选择 INCONCLUSIVE 并说明原因。

请严格输出唯一的 JSON 对象，格式如下：
{
  "verdict": "STRONG|ACCEPTABLE|WEAK|INCONCLUSIVE",
  "confidence": 0.0-1.0,
  "highlights": ["..."],
  "risks": ["..."],
  "suggestions": ["..."],
  "comment": "..."
}
`

var tmpl = template.Must(template.New("review").Parse(reviewTemplate))

// PromptContext 用于渲染提示词。
type PromptContext struct {
	SummaryJSON string
	DailyJSON   string
	CostRate    float64
}

// BuildPrompt 将绩效文档渲染成提示词字符串。
func BuildPrompt(doc report.Document, costRate float64) (string, error) {
	summaryJSON, err := json.MarshalIndent(doc.Summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ai: 序列化汇总指标失败: %w", err)
	}
	dailyJSON, err := json.MarshalIndent(doc.Daily, "", "  ")
	if err != nil {
		return "", fmt.Errorf("ai: 序列化逐日明细失败: %w", err)
	}

	ctx := PromptContext{
		SummaryJSON: string(summaryJSON),
		DailyJSON:   string(dailyJSON),
		CostRate:    costRate,
	}

	var buf bytes.Buffer
	if err = tmpl.Execute(&buf, ctx); err != nil {
		return "", fmt.Errorf("ai: 渲染提示词失败: %w", err)
	}

	return buf.String(), nil
}
