package main

import (
	"fmt"
	"io"

	"github.com/gocrud/greeter/config"
	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
	"github.com/gocrud/greeter/mvc"
)

const (
	wiringContainer = "container"
	wiringManual    = "manual"
)

// runConsole 组装对象图并运行一次控制器
func runConsole(cfg config.Configuration, wiring string, in io.Reader, out io.Writer, logger logging.Logger) error {
	var app *mvc.App

	switch wiring {
	case wiringManual:
		app = mvc.WireManual(in, out)
		app.Config.AppName = cfg.Get("app:name")

	case wiringContainer:
		c := di.NewContainer(di.WithLogger(logger))
		mvc.RegisterConsole(c, in, out)
		di.RegisterInstance(c, appConfiguration(cfg))

		var err error
		if app, err = mvc.Resolve(c); err != nil {
			return err
		}

	default:
		return fmt.Errorf("unknown wiring %q (want %s or %s)", wiring, wiringContainer, wiringManual)
	}

	app.Logger.Log(fmt.Sprintf("App Name: %s - %s wiring", app.Config.Name(), wiring))
	return app.Controller.Run()
}

func appConfiguration(cfg config.Configuration) *mvc.Configuration {
	return &mvc.Configuration{AppName: cfg.Get("app:name")}
}
