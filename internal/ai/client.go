package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"perf-matrix/internal/config"
	"perf-matrix/internal/metrics"
	"perf-matrix/internal/report"
)

// ErrNothingToReview 表示结果为空输入，不调用模型。
var ErrNothingToReview = errors.New("ai: 没有可点评的统计结果")

// Reviewer 封装 OpenAI 调用逻辑，对绩效结果生成点评。
type Reviewer struct {
	cfg    config.OpenAIConfig
	logger *zap.Logger
	sdk    *openai.Client
}

// NewReviewer 使用给定配置创建点评客户端。
func NewReviewer(cfg config.OpenAIConfig, logger *zap.Logger) (*Reviewer, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ai: openai api_key 不能为空")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	sdkConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		sdkConfig.BaseURL = cfg.BaseURL
	}
	sdkConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout + 5*time.Second,
	}

	return &Reviewer{
		cfg:    cfg,
		logger: logger,
		sdk:    openai.NewClientWithConfig(sdkConfig),
	}, nil
}

// Review 将计算结果发送给模型并解析点评。
func (r *Reviewer) Review(ctx context.Context, result metrics.Result, costRate float64) (Review, error) {
	if result.Empty() {
		return Review{}, ErrNothingToReview
	}
	if r.cfg.Model == "" {
		return Review{}, errors.New("ai: openai model 不能为空")
	}

	doc, err := report.NewDocument(result, 0)
	if err != nil {
		return Review{}, err
	}
	prompt, err := BuildPrompt(doc, costRate)
	if err != nil {
		return Review{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	response, err := r.sdk.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.cfg.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: 0,
	})
	if err != nil {
		r.logger.Error("调用OpenAI失败", zap.Error(err))
		return Review{}, fmt.Errorf("ai: 调用OpenAI失败: %w", err)
	}

	if len(response.Choices) == 0 {
		return Review{}, errors.New("ai: OpenAI 返回结果为空")
	}

	rawContent := strings.TrimSpace(response.Choices[0].Message.Content)
	if rawContent == "" {
		return Review{}, errors.New("ai: OpenAI 返回内容为空")
	}

	review, err := parseReview(rawContent)
	if err != nil {
		r.logger.Error("解析模型点评失败",
			zap.Error(err),
			zap.String("raw_content", rawContent),
		)
		return Review{}, err
	}

	if err := review.Validate(); err != nil {
		return Review{}, err
	}

	r.logger.Info("AI 点评生成成功",
		zap.String("verdict", review.Verdict),
		zap.Float64("confidence", review.Confidence),
		zap.Int("risks", len(review.Risks)),
	)

	return review, nil
}

func parseReview(content string) (Review, error) {
	jsonPayload, err := extractJSON(content)
	if err != nil {
		return Review{}, err
	}

	var review Review
	if err = json.Unmarshal(jsonPayload, &review); err != nil {
		return Review{}, fmt.Errorf("ai: 解析点评JSON失败: %w", err)
	}

	return review, nil
}

func extractJSON(content string) ([]byte, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")

	if start == -1 || end == -1 || end <= start {
		return nil, fmt.Errorf("ai: 模型输出未找到有效JSON: %s", content)
	}

	return []byte(content[start : end+1]), nil
}
