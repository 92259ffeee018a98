package main

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger 创建命令行日志器，时间戳精确到百分之一秒。子命令通过
// log.FromContext 取得它，未注入时得到 log.Default()。
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress 在一次较慢的操作结束时连同耗时输出一条 Info 日志。
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string) {
	p.logger.Info(msg, "took", time.Since(p.start).Round(time.Millisecond))
}
