package watchdog

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/zoeyai/zoomwatch/pkg/config"
	"github.com/zoeyai/zoomwatch/pkg/focus"
)

// Sleeper 可被取消的休眠
type Sleeper func(ctx context.Context, d time.Duration) error

// Options 循环参数
type Options struct {
	// WindowPattern 主窗口标题正则
	WindowPattern *regexp.Regexp
	// ProcessName 主窗口缺失时用于诊断的进程名，可为空
	ProcessName   string
	Interval      time.Duration
	RetryDelay    time.Duration
	SettleDelay   time.Duration
	MaxIterations int
	RestoreFocus  bool
}

// OptionsFromConfig 由配置构建循环参数
func OptionsFromConfig(cfg *config.WatchConfig) (*Options, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	re, err := regexp.Compile(cfg.WindowTitlePattern)
	if err != nil {
		return nil, fmt.Errorf("window_title_pattern 无效: %w", err)
	}
	return &Options{
		WindowPattern: re,
		ProcessName:   cfg.ProcessName,
		Interval:      cfg.Interval(),
		RetryDelay:    cfg.RetryDelay(),
		SettleDelay:   cfg.SettleDelay(),
		MaxIterations: cfg.MaxIterations,
		RestoreFocus:  cfg.RestoreFocus,
	}, nil
}

// Option 配置选项函数类型
type Option func(*Watchdog)

// WithSleeper 替换休眠实现
func WithSleeper(s Sleeper) Option {
	return func(w *Watchdog) {
		w.sleep = s
	}
}

// WithFocusTracker 设置前台窗口记录器，nil 表示不恢复焦点
func WithFocusTracker(t focus.Tracker) Option {
	return func(w *Watchdog) {
		w.focus = t
	}
}

// WithProcessCheck 设置进程存活检查
func WithProcessCheck(fn func(name string) bool) Option {
	return func(w *Watchdog) {
		w.isRunning = fn
	}
}

// sleepContext 休眠 d，ctx 取消时提前返回
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
