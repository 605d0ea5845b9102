package mvc

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// DefaultAppName 未配置时使用的应用名
const DefaultAppName = "HelloApp"

// Logger 把消息以 "[LOG]: " 前缀逐行写出，零值写到标准输出
type Logger struct {
	Out io.Writer
	mu  sync.Mutex
}

// Log 写出一行日志
func (l *Logger) Log(message string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(writerOrStdout(l.Out), "[LOG]: %s\n", message)
}

// Configuration 应用配置
type Configuration struct {
	AppName string `json:"name" yaml:"name"`
}

// Name 返回应用名，未设置时为 DefaultAppName
func (c *Configuration) Name() string {
	if c == nil || c.AppName == "" {
		return DefaultAppName
	}
	return c.AppName
}

// Model 保存当前用户名，可并发使用
type Model struct {
	mu   sync.RWMutex
	name string
}

func (m *Model) SetName(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.name = name
}

func (m *Model) Name() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.name
}

// View 负责终端交互，In/Out 为空时使用标准输入输出
type View struct {
	In  io.Reader
	Out io.Writer

	once   sync.Once
	reader *bufio.Reader
}

// AskForName 输出提示并读取一行，去掉行尾的换行符
// 输入结束且没有读到内容时返回 io.EOF
func (v *View) AskForName() (string, error) {
	v.once.Do(func() {
		in := v.In
		if in == nil {
			in = os.Stdin
		}
		v.reader = bufio.NewReader(in)
	})

	fmt.Fprint(writerOrStdout(v.Out), "Enter your name: ")

	line, err := v.reader.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// DisplayGreeting 输出问候语
func (v *View) DisplayGreeting(name string) {
	fmt.Fprintln(writerOrStdout(v.Out), FormatGreeting(name))
}

// Controller 协调 Model、View 和 Logger
type Controller struct {
	model  *Model
	view   *View
	logger *Logger
}

// NewController 创建控制器，参数顺序即依赖顺序
func NewController(model *Model, view *View, logger *Logger) *Controller {
	return &Controller{model: model, view: view, logger: logger}
}

// Run 执行一次问候流程
func (c *Controller) Run() error {
	c.logger.Log("Starting application...")

	name, err := c.view.AskForName()
	if err != nil {
		return fmt.Errorf("mvc: read name: %w", err)
	}
	c.model.SetName(name)
	c.view.DisplayGreeting(c.model.Name())

	c.logger.Log("Application finished.")
	return nil
}

func (c *Controller) Model() *Model   { return c.model }
func (c *Controller) View() *View     { return c.view }
func (c *Controller) Logger() *Logger { return c.logger }

func writerOrStdout(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}
