package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// AsyncWriter 异步日志写入器
// 队列满时 WriteLog 阻塞，不丢日志；Close 之后的写入改为同步
type AsyncWriter struct {
	writer     io.Writer
	formatter  Formatter
	entryCh    chan *LogEntry
	wg         sync.WaitGroup
	mu         sync.RWMutex
	closed     bool
	writeMu    sync.Mutex
	errHandler func(error)
}

// NewAsyncWriter 创建新的异步写入器
func NewAsyncWriter(writer io.Writer, formatter Formatter, bufferSize int) *AsyncWriter {
	w := &AsyncWriter{
		writer:    writer,
		formatter: formatter,
		entryCh:   make(chan *LogEntry, bufferSize),
	}

	w.wg.Add(1)
	go w.process()

	return w
}

// WriteLog 写入日志条目
func (w *AsyncWriter) WriteLog(entry *LogEntry) {
	w.mu.RLock()
	if !w.closed {
		w.entryCh <- entry
		w.mu.RUnlock()
		return
	}
	w.mu.RUnlock()
	w.write(entry)
}

// Close 等待队列中的日志全部写出
func (w *AsyncWriter) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.entryCh)
	w.mu.Unlock()

	w.wg.Wait()
	return nil
}

func (w *AsyncWriter) process() {
	defer w.wg.Done()

	for entry := range w.entryCh {
		w.write(entry)
	}
}

func (w *AsyncWriter) write(entry *LogEntry) {
	data, err := w.formatter.Format(entry)
	if err != nil {
		w.handleError(fmt.Errorf("format: %w", err))
		return
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	w.writeMu.Lock()
	defer w.writeMu.Unlock()
	if _, err := w.writer.Write(data); err != nil {
		w.handleError(fmt.Errorf("write: %w", err))
	}
}

func (w *AsyncWriter) handleError(err error) {
	if w.errHandler != nil {
		w.errHandler(err)
		return
	}
	fmt.Fprintf(os.Stderr, "AsyncWriter %v\n", err)
}

// SetErrorHandler 设置错误处理函数
func (w *AsyncWriter) SetErrorHandler(handler func(error)) {
	w.errHandler = handler
}
