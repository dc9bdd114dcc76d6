package ai

import (
	"errors"
	"fmt"
	"strings"
)

// Review 为大模型给出的绩效点评。
type Review struct {
	Verdict     string   `json:"verdict" yaml:"verdict"`
	Confidence  float64  `json:"confidence" yaml:"confidence"`
	Highlights  []string `json:"highlights" yaml:"highlights"`
	Risks       []string `json:"risks" yaml:"risks"`
	Suggestions []string `json:"suggestions" yaml:"suggestions"`
	Comment     string   `json:"comment" yaml:"comment"`
}

var validVerdicts = map[string]struct{}{
	"STRONG":       {},
	"ACCEPTABLE":   {},
	"WEAK":         {},
	"INCONCLUSIVE": {},
}

// Validate 校验点评字段合法性，并将 Verdict 统一为大写。
func (r *Review) Validate() error {
	verdict := strings.ToUpper(strings.TrimSpace(r.Verdict))
	if verdict == "" {
		return errors.New("ai: verdict 不能为空")
	}
	if _, ok := validVerdicts[verdict]; !ok {
		return fmt.Errorf("ai: verdict 字段取值非法: %s", r.Verdict)
	}
	r.Verdict = verdict

	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("ai: confidence 必须在 [0,1] 区间，目前为 %f", r.Confidence)
	}
	if strings.TrimSpace(r.Comment) == "" {
		return errors.New("ai: comment 不能为空")
	}
	return nil
}
