package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"go.uber.org/zap"

	"perf-matrix/internal/app"
	"perf-matrix/internal/config"
	"perf-matrix/internal/log"
)

// env 在子命令执行时才加载配置，help 等命令无需有效配置。
type env struct {
	configPath string
}

// overrides 为子命令上可覆盖的配置项，空值表示沿用配置文件。
type overrides struct {
	format      string
	input       string
	priceSource string
}

func (o *overrides) apply(cfg *config.Config) error {
	if o.format != "" {
		cfg.Output.Format = strings.ToLower(o.format)
	}
	if o.input != "" {
		cfg.Input.Source = config.InputSourceCSV
		cfg.Input.Path = o.input
	}
	if o.priceSource != "" {
		cfg.Price.Source = strings.ToLower(o.priceSource)
	}
	return cfg.Validate()
}

type session struct {
	app    *app.App
	cfg    *config.Config
	logger *zap.Logger
}

func (s *session) close() {
	if err := s.app.Close(); err != nil {
		s.logger.Warn("关闭数据库失败", zap.Error(err))
	}
	_ = s.logger.Sync()
}

func openSession(args []interface{}, o *overrides) (*session, subcommands.ExitStatus) {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "内部错误: 缺少运行环境")
		return nil, subcommands.ExitFailure
	}
	e, ok := args[0].(*env)
	if !ok {
		fmt.Fprintln(os.Stderr, "内部错误: 运行环境类型不符")
		return nil, subcommands.ExitFailure
	}

	cfg, err := config.Load(e.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		return nil, subcommands.ExitFailure
	}
	if o != nil {
		if err := o.apply(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", err)
			return nil, subcommands.ExitUsageError
		}
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		return nil, subcommands.ExitFailure
	}

	return &session{app: app.New(cfg, logger), cfg: cfg, logger: logger}, subcommands.ExitSuccess
}
