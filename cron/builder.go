package cron

import (
	"fmt"
	"time"

	"github.com/gocrud/greeter/di"
	"github.com/gocrud/greeter/logging"
	"github.com/robfig/cron/v3"
)

// Builder Cron 配置构建器
type Builder struct {
	enableSeconds    bool
	enableCronLogger bool
	location         string
	jobs             []jobDefinition
}

// jobDefinition 任务定义
type jobDefinition struct {
	spec    string
	name    string
	handler any // func() 或参数由容器注入的函数
}

// NewBuilder 创建 Cron 构建器
func NewBuilder() *Builder {
	return &Builder{
		location: "UTC",
		jobs:     make([]jobDefinition, 0),
	}
}

// WithSeconds 启用秒级精度
func (b *Builder) WithSeconds() *Builder {
	b.enableSeconds = true
	return b
}

// WithLocation 设置时区
func (b *Builder) WithLocation(location string) *Builder {
	b.location = location
	return b
}

// EnableCronLogger 启用 cron 库的内部调度日志
func (b *Builder) EnableCronLogger() *Builder {
	b.enableCronLogger = true
	return b
}

// AddJob 添加任务
// handler 可以是 func()，也可以是参数从 DI 容器解析的函数，可选返回 error
//
// 示例：
//
//	builder.AddJob("@every 1m", "greeting-report", func(store mvc.GreetingStore, logger logging.Logger) error {
//	    ...
//	})
func (b *Builder) AddJob(spec, name string, handler any) *Builder {
	b.jobs = append(b.jobs, jobDefinition{
		spec:    spec,
		name:    name,
		handler: handler,
	})
	return b
}

// Build 创建 Service，所有任务在此时校验并注册
func (b *Builder) Build(container di.Container, logger logging.Logger) (*Service, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithCategory("cron")

	loc, err := time.LoadLocation(b.location)
	if err != nil {
		return nil, fmt.Errorf("cron: invalid location %q: %w", b.location, err)
	}

	cronOpts := []cron.Option{
		cron.WithLocation(loc),
		cron.WithChain(cron.Recover(newCronLogger(logger))),
	}
	if b.enableCronLogger {
		cronOpts = append(cronOpts, cron.WithLogger(newCronLogger(logger)))
	}
	if b.enableSeconds {
		cronOpts = append(cronOpts, cron.WithSeconds())
	}

	svc := newService(cron.New(cronOpts...), logger)
	for _, job := range b.jobs {
		run, err := wrapHandler(container, job.handler)
		if err != nil {
			return nil, fmt.Errorf("cron: job '%s': %w", job.name, err)
		}
		if err := svc.addJob(job.spec, job.name, run); err != nil {
			return nil, err
		}
	}
	return svc, nil
}
