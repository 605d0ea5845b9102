package cron

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/gocrud/greeter/logging"
	"github.com/robfig/cron/v3"
)

// Service Cron 定时任务托管服务，实现 core.HostedService
type Service struct {
	cron   *cron.Cron
	logger logging.Logger
	mu     sync.RWMutex
	jobs   map[string]job
}

type job struct {
	id  cron.EntryID
	run func() error
}

func newService(c *cron.Cron, logger logging.Logger) *Service {
	return &Service{
		cron:   c,
		logger: logger,
		jobs:   make(map[string]job),
	}
}

// addJob 添加定时任务
// spec: cron 表达式，如 "*/5 * * * *" (每5分钟) 或 "@every 1m"
func (s *Service) addJob(spec, name string, run func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("cron: duplicate job name '%s'", name)
	}

	entryID, err := s.cron.AddFunc(spec, func() { s.execute(name, run) })
	if err != nil {
		return fmt.Errorf("cron: failed to add job '%s': %w", name, err)
	}

	s.jobs[name] = job{id: entryID, run: run}
	s.logger.Debug("Cron job registered",
		logging.Field{Key: "job", Value: name},
		logging.Field{Key: "spec", Value: spec})
	return nil
}

func (s *Service) execute(name string, run func() error) {
	s.logger.Debug("Cron job started", logging.Field{Key: "job", Value: name})
	if err := run(); err != nil {
		s.logger.Error("Cron job failed",
			logging.Field{Key: "job", Value: name},
			logging.Field{Key: "error", Value: err.Error()})
		return
	}
	s.logger.Debug("Cron job completed", logging.Field{Key: "job", Value: name})
}

// RunNow 立即同步执行指定任务一次
func (s *Service) RunNow(name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("cron: unknown job '%s'", name)
	}
	return j.run()
}

// Remove 移除定时任务
func (s *Service) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if j, exists := s.jobs[name]; exists {
		s.cron.Remove(j.id)
		delete(s.jobs, name)
		s.logger.Info("Cron job removed", logging.Field{Key: "job", Value: name})
	}
}

// Jobs 返回已注册的任务名称（排序）
func (s *Service) Jobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.jobs))
	for name := range s.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start 实现 HostedService.Start，启动调度后立即返回
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info("CronService starting", logging.Field{Key: "jobs", Value: len(s.Jobs())})
	s.cron.Start()
	return nil
}

// Stop 实现 HostedService.Stop，等待运行中的任务结束或 ctx 超时
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info("CronService stopping")

	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger 适配器：将框架日志接口适配到 cron 的日志接口
type cronLogger struct {
	logger logging.Logger
}

func newCronLogger(logger logging.Logger) cron.Logger {
	return &cronLogger{logger: logger}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, convertToFields(keysAndValues)...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	fields := convertToFields(keysAndValues)
	fields = append(fields, logging.Field{Key: "error", Value: err.Error()})
	l.logger.Error(msg, fields...)
}

func convertToFields(keysAndValues []interface{}) []logging.Field {
	fields := make([]logging.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields = append(fields, logging.Field{
			Key:   fmt.Sprintf("%v", keysAndValues[i]),
			Value: keysAndValues[i+1],
		})
	}
	return fields
}
