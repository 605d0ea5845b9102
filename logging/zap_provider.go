package logging

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLoggerProvider 基于 zap 的日志提供者，适合生产环境的 JSON 输出
type ZapLoggerProvider struct {
	logger       *zap.Logger
	minimumLevel LogLevel
	mu           sync.RWMutex
}

// NewZapLoggerProvider 使用给定的 zap.Logger 创建提供者
// logger 为 nil 时使用 zap 的生产配置（JSON 输出到 stdout）
func NewZapLoggerProvider(logger *zap.Logger) (*ZapLoggerProvider, error) {
	if logger == nil {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cfg.OutputPaths = []string{"stdout"}
		built, err := cfg.Build()
		if err != nil {
			return nil, err
		}
		logger = built
	}
	return &ZapLoggerProvider{
		logger:       logger,
		minimumLevel: LogLevelInfo,
	}, nil
}

func (p *ZapLoggerProvider) CreateLogger(category string) Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return &zapLogger{
		base:         p.logger,
		logger:       p.logger.Named(category),
		minimumLevel: p.minimumLevel,
	}
}

func (p *ZapLoggerProvider) SetMinimumLevel(level LogLevel) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.minimumLevel = level
}

// Sync 刷新 zap 缓冲
func (p *ZapLoggerProvider) Sync() error {
	return p.logger.Sync()
}

// zapLogger 把框架的 Logger 接口适配到 zap
type zapLogger struct {
	base         *zap.Logger
	logger       *zap.Logger
	minimumLevel LogLevel
}

func (l *zapLogger) Trace(msg string, fields ...Field) {
	l.Log(LogLevelTrace, msg, fields...)
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.Log(LogLevelDebug, msg, fields...)
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.Log(LogLevelInfo, msg, fields...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.Log(LogLevelWarn, msg, fields...)
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	l.Log(LogLevelError, msg, fields...)
}

func (l *zapLogger) Fatal(msg string, fields ...Field) {
	l.Log(LogLevelFatal, msg, fields...)
	_ = l.logger.Sync()
	os.Exit(1)
}

func (l *zapLogger) Log(level LogLevel, msg string, fields ...Field) {
	if level < l.minimumLevel {
		return
	}
	l.logger.Log(toZapLevel(level), msg, toZapFields(fields)...)
}

func (l *zapLogger) WithFields(fields ...Field) Logger {
	return &zapLogger{
		base:         l.base,
		logger:       l.logger.With(toZapFields(fields)...),
		minimumLevel: l.minimumLevel,
	}
}

func (l *zapLogger) WithCategory(category string) Logger {
	return &zapLogger{
		base:         l.base,
		logger:       l.base.Named(category),
		minimumLevel: l.minimumLevel,
	}
}

// toZapLevel 映射日志级别；Fatal 映射为 Error，退出由调用方负责
func toZapLevel(level LogLevel) zapcore.Level {
	switch level {
	case LogLevelTrace, LogLevelDebug:
		return zapcore.DebugLevel
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}
