// Command greeter 运行问候程序。
//
// console 模式读取一个名字并打印问候，对象图由容器或手动组装；
// serve 模式提供 HTTP 接口并定时输出问候统计。
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	greeter "github.com/gocrud/greeter"
	"github.com/gocrud/greeter/core"
	"github.com/gocrud/greeter/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "greeter:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	fs := flag.NewFlagSet("greeter", flag.ContinueOnError)
	configPath := fs.String("config", "configs/greeter.yaml", "YAML 配置文件（可选）")
	envFile := fs.String("env", "", ".env 文件（可选）")
	mode := fs.String("mode", "console", "运行模式: console 或 serve")
	wiring := fs.String("wiring", wiringContainer, "console 模式的组装方式: container 或 manual")
	envName := fs.String("environment", "", "运行环境，默认读取 GREETER_ENV")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, settings, err := loadConfiguration(*configPath, *envFile)
	if err != nil {
		return err
	}

	logger, flush, err := newLogger(settings.Log)
	if err != nil {
		return err
	}
	defer flush()

	switch *mode {
	case "console":
		return runConsole(cfg, *wiring, in, out, logger)
	case "serve":
		env := core.NewEnvironment(*envName)
		logger.Info("Starting greeter",
			logging.Field{Key: "environment", Value: env.Name()},
			logging.Field{Key: "store", Value: settings.Store.Driver},
			logging.Field{Key: "port", Value: settings.Web.Port})

		rt := core.NewRuntime(core.WithRuntimeLogger(logger))
		return greeter.RunContext(ctx, rt, serveOptions(cfg, settings, env)...)
	default:
		return fmt.Errorf("unknown mode %q", *mode)
	}
}
