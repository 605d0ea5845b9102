package mvc

import (
	"io"

	"github.com/gocrud/greeter/di"
)

// App 是组装好的对象图
type App struct {
	Config     *Configuration
	Logger     *Logger
	Model      *Model
	View       *View
	Controller *Controller
}

// WireManual 手动构造对象图，依赖按构造函数参数顺序传入
func WireManual(in io.Reader, out io.Writer) *App {
	config := &Configuration{}
	logger := &Logger{Out: out}
	model := &Model{}
	view := &View{In: in, Out: out}

	return &App{
		Config:     config,
		Logger:     logger,
		Model:      model,
		View:       view,
		Controller: NewController(model, view, logger),
	}
}

// Register 把 Logger、Configuration、Model、View（无依赖）和
// Controller（依赖 Model、View、Logger）注册到容器
func Register(c di.Container) {
	di.Register[*Logger](c)
	di.Register[*Configuration](c)
	di.Register[*Model](c)
	di.Register[*View](c)
	di.RegisterWithDependencies[*Controller](c, NewController)
}

// RegisterConsole 在 Register 的基础上，把 Logger 和 View 替换为使用给定输入输出的实例
func RegisterConsole(c di.Container, in io.Reader, out io.Writer) {
	Register(c)
	di.RegisterInstance(c, &Logger{Out: out})
	di.RegisterInstance(c, &View{In: in, Out: out})
}

// Resolve 从容器解析整个对象图
func Resolve(c di.Container) (*App, error) {
	app := &App{}
	var err error

	if app.Config, err = di.Resolve[*Configuration](c); err != nil {
		return nil, err
	}
	if app.Logger, err = di.Resolve[*Logger](c); err != nil {
		return nil, err
	}
	if app.Model, err = di.Resolve[*Model](c); err != nil {
		return nil, err
	}
	if app.View, err = di.Resolve[*View](c); err != nil {
		return nil, err
	}
	if app.Controller, err = di.Resolve[*Controller](c); err != nil {
		return nil, err
	}
	return app, nil
}
