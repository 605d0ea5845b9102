package core

import (
	"os"
	"strings"
)

// Environment 环境接口
type Environment interface {
	Name() string
	IsDevelopment() bool
	IsProduction() bool
}

// environment 环境实现
type environment struct {
	name string
}

// NewEnvironment 创建环境，名称为空时读取 GREETER_ENV，默认 development
func NewEnvironment(name string) Environment {
	if name == "" {
		name = os.Getenv("GREETER_ENV")
	}
	if name == "" {
		name = "development"
	}
	return &environment{name: strings.ToLower(name)}
}

func (e *environment) Name() string {
	return e.name
}

func (e *environment) IsDevelopment() bool {
	return e.name == "development"
}

func (e *environment) IsProduction() bool {
	return e.name == "production"
}

// WithEnvironment 把环境注册到容器
func WithEnvironment(env Environment) Option {
	return func(rt *Runtime) error {
		return rt.Provide(func() Environment { return env })
	}
}
