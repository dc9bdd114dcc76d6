package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path"
	"syscall"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	// .env 不存在时忽略，环境变量仍可通过 PERFMATRIX_ 前缀覆盖配置
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	commander.Register(&statsCmd{}, "analysis")
	commander.Register(&reviewCmd{}, "analysis")
	commander.Register(&fillsCmd{}, "inputs")
	commander.Register(&pricesCmd{}, "inputs")

	configPath := flag.String("config", "", "配置文件路径，默认使用 configs/config.yaml")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	status := commander.Execute(ctx, &env{configPath: *configPath})
	stop()
	os.Exit(int(status))
}
