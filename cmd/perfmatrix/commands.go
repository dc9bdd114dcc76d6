package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/google/subcommands"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"perf-matrix/internal/ai"
	"perf-matrix/internal/metrics"
	"perf-matrix/internal/report"
)

// statsCmd 计算并输出绩效统计。
type statsCmd struct {
	overrides
	window int
}

func (*statsCmd) Name() string     { return "stats" }
func (*statsCmd) Synopsis() string { return "compute performance statistics from fills" }
func (*statsCmd) Usage() string {
	return `perfmatrix stats [-format yaml|json|text] [-i <fills.csv>] [-price random|constant|sqlite|exchange] [-window <n>]

  Load fills, resolve daily close prices and print the summary statistics
  together with the per-day table.
`
}

func (c *statsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "output format (yaml, json, text); defaults to output.format")
	f.StringVar(&c.input, "i", "", "fills CSV file; overrides input.source/input.path")
	f.StringVar(&c.priceSource, "price", "", "close price source; overrides price.source")
	f.IntVar(&c.window, "window", 0, "rolling window for daily P&L stats; defaults to metrics.rolling_window")
}

func (c *statsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s, status := openSession(args, &c.overrides)
	if s == nil {
		return status
	}
	defer s.close()

	result, err := s.app.Run(ctx)
	if err != nil {
		s.logger.Error("绩效统计失败", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	window := c.window
	if window == 0 {
		window = s.cfg.Metrics.RollingWindow
	}
	if err := report.Render(os.Stdout, result, report.Options{Format: s.cfg.Output.Format, RollingWindow: window}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// fillsCmd 输出校验后的成交。
type fillsCmd struct {
	overrides
}

func (*fillsCmd) Name() string     { return "fills" }
func (*fillsCmd) Synopsis() string { return "validate and print the input fills" }
func (*fillsCmd) Usage() string {
	return `perfmatrix fills [-format yaml|json|text] [-i <fills.csv>]

  Load and validate fills, then print them in (date, arrival) order.
`
}

func (c *fillsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "output format (yaml, json, text); defaults to output.format")
	f.StringVar(&c.input, "i", "", "fills CSV file; overrides input.source/input.path")
}

func (c *fillsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s, status := openSession(args, &c.overrides)
	if s == nil {
		return status
	}
	defer s.close()

	fills, err := s.app.LoadFills(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := report.RenderFills(os.Stdout, fills, s.cfg.Output.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// pricesCmd 输出（可选保存）成交覆盖范围内的收盘价。
type pricesCmd struct {
	overrides
	save bool
}

func (*pricesCmd) Name() string     { return "prices" }
func (*pricesCmd) Synopsis() string { return "resolve close prices for the traded dates and instruments" }
func (*pricesCmd) Usage() string {
	return `perfmatrix prices [-format yaml|json|text] [-i <fills.csv>] [-price <source>] [-save]

  Resolve one close price per (date, instrument) covered by the fills.
  With -save the table is written to price.table so later runs can use
  -price sqlite and get identical results.
`
}

func (c *pricesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "output format (yaml, json, text); defaults to output.format")
	f.StringVar(&c.input, "i", "", "fills CSV file; overrides input.source/input.path")
	f.StringVar(&c.priceSource, "price", "", "close price source; overrides price.source")
	f.BoolVar(&c.save, "save", false, "store the resolved prices into the SQLite price table")
}

func (c *pricesCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s, status := openSession(args, &c.overrides)
	if s == nil {
		return status
	}
	defer s.close()

	fills, err := s.app.LoadFills(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	prices, err := s.app.ResolvePrices(ctx, fills)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if c.save {
		if err := s.app.SavePrices(ctx, prices); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	}
	if err := report.RenderPrices(os.Stdout, prices, s.cfg.Output.Format); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// reviewCmd 计算统计后请求大模型点评。
type reviewCmd struct {
	overrides
}

func (*reviewCmd) Name() string     { return "review" }
func (*reviewCmd) Synopsis() string { return "compute statistics and ask an LLM for a short review" }
func (*reviewCmd) Usage() string {
	return `perfmatrix review [-format yaml|json|text] [-i <fills.csv>] [-price <source>]

  Same as stats, followed by a narrative review. Requires openai.api_key
  (or PERFMATRIX_OPENAI_API_KEY).
`
}

func (c *reviewCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "", "output format (yaml, json, text); defaults to output.format")
	f.StringVar(&c.input, "i", "", "fills CSV file; overrides input.source/input.path")
	f.StringVar(&c.priceSource, "price", "", "close price source; overrides price.source")
}

func (c *reviewCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	s, status := openSession(args, &c.overrides)
	if s == nil {
		return status
	}
	defer s.close()

	reviewer, err := s.app.Reviewer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	result, err := s.app.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	review, err := reviewer.Review(ctx, result, s.cfg.Metrics.CostRate)
	switch {
	case errors.Is(err, ai.ErrNothingToReview):
		s.logger.Info("空输入，跳过点评")
	case err != nil:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	var reviewPtr *ai.Review
	if err == nil {
		reviewPtr = &review
	}
	opts := report.Options{Format: s.cfg.Output.Format, RollingWindow: s.cfg.Metrics.RollingWindow}
	if err := writeReview(os.Stdout, result, opts, reviewPtr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type reviewOutput struct {
	Result report.Document `json:"result" yaml:"result"`
	Review *ai.Review      `json:"review,omitempty" yaml:"review,omitempty"`
}

func writeReview(w io.Writer, result metrics.Result, opts report.Options, review *ai.Review) error {
	if opts.Format == report.FormatText {
		if err := report.Render(w, result, opts); err != nil {
			return err
		}
		writeReviewText(w, review)
		return nil
	}

	doc, err := report.NewDocument(result, opts.RollingWindow)
	if err != nil {
		return err
	}
	out := reviewOutput{Result: doc, Review: review}

	if opts.Format == report.FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

func writeReviewText(w io.Writer, review *ai.Review) {
	if review == nil {
		return
	}

	fmt.Fprintf(w, "\nverdict: %s (confidence %.2f)\n%s\n", review.Verdict, review.Confidence, review.Comment)
	for _, section := range []struct {
		title string
		items []string
	}{
		{"highlights", review.Highlights},
		{"risks", review.Risks},
		{"suggestions", review.Suggestions},
	} {
		if len(section.items) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s:\n", section.title)
		for _, item := range section.items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
}
