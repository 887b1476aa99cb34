// Package watchdog 驱动弹窗处理循环
//
// 每轮迭代：记录前台窗口 → 按标题解析主窗口 → 依次执行处理器
// （每个处理器之前等待界面稳定并重新枚举窗口，成功后恢复前台窗口）→ 休眠。
// 所有处理器在同一轮成功，或迭代次数达到上限时结束。
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zoeyai/zoomwatch/internal/logger"
	"github.com/zoeyai/zoomwatch/pkg/focus"
	"github.com/zoeyai/zoomwatch/pkg/handler"
	"github.com/zoeyai/zoomwatch/pkg/process"
	"github.com/zoeyai/zoomwatch/pkg/uia"
)

// State 循环状态
type State int

const (
	Running State = iota
	Done
)

func (s State) String() string {
	if s == Done {
		return "done"
	}
	return "running"
}

// StopReason 循环结束原因
type StopReason string

const (
	AllHandled StopReason = "all_handled"
	Ceiling    StopReason = "ceiling"
	Canceled   StopReason = "canceled"
)

// Result 循环结果
type Result struct {
	Iterations int
	Reason     StopReason
	// Handled 各处理器成功次数
	Handled map[string]int
}

// Watchdog 弹窗处理循环
type Watchdog struct {
	desktop   uia.Desktop
	handlers  []handler.Handler
	opts      Options
	focus     focus.Tracker
	sleep     Sleeper
	isRunning func(name string) bool
	now       func() time.Time

	state   State
	handled map[string]int
}

// New 创建循环，handlers 按给定顺序执行
func New(desktop uia.Desktop, handlers []handler.Handler, opts Options, options ...Option) *Watchdog {
	w := &Watchdog{
		desktop:   desktop,
		handlers:  handlers,
		opts:      opts,
		sleep:     sleepContext,
		isRunning: process.IsRunning,
		now:       time.Now,
		state:     Running,
		handled:   make(map[string]int),
	}
	for _, o := range options {
		o(w)
	}
	return w
}

// State 返回当前状态
func (w *Watchdog) State() State {
	return w.state
}

// iteration 单轮迭代结果
type iteration struct {
	allHandled    bool
	windowMissing bool
}

// Run 运行循环直到结束条件满足或 ctx 被取消
func (w *Watchdog) Run(ctx context.Context) Result {
	w.state = Running
	defer func() { w.state = Done }()

	n := 0
	finish := func(reason StopReason) Result {
		logger.Info("循环结束: %s (共 %d 轮)", reason, n)
		return Result{Iterations: n, Reason: reason, Handled: w.handled}
	}

	for {
		if ctx.Err() != nil {
			return finish(Canceled)
		}

		n++
		logger.Info("--- Iteration %d ---", n)

		it, err := w.runIteration(ctx)
		if err != nil {
			return finish(Canceled)
		}
		if it.allHandled {
			return finish(AllHandled)
		}
		if n >= w.opts.MaxIterations {
			return finish(Ceiling)
		}
		if it.windowMissing {
			// 已按 RetryDelay 等待过
			continue
		}
		if err := w.sleep(ctx, w.opts.Interval); err != nil {
			return finish(Canceled)
		}
	}
}

// runIteration 执行一轮；只有 ctx 取消时返回错误
func (w *Watchdog) runIteration(ctx context.Context) (iteration, error) {
	snap, haveSnap := w.capture()

	if _, main := w.resolveMain(); main == nil {
		w.reportMissing()
		return iteration{windowMissing: true}, w.sleep(ctx, w.opts.RetryDelay)
	}

	all := len(w.handlers) > 0
	for _, h := range w.handlers {
		if err := w.sleep(ctx, w.opts.SettleDelay); err != nil {
			return iteration{}, err
		}

		// 界面稳定后重新解析，上一个处理器的点击可能已改变窗口
		wins, main := w.resolveMain()
		if main == nil {
			logger.Warn("主窗口已消失，跳过 %s", h.Name())
			all = false
			continue
		}
		env := &handler.Env{Desktop: staticDesktop(wins), Main: main}

		start := w.now()
		ok := w.safeHandle(h, env)
		logger.LogEvent(h.Name(), ok, w.now().Sub(start), outcomeDetail(ok))

		if !ok {
			all = false
			continue
		}
		w.handled[h.Name()]++
		if haveSnap {
			w.restore(snap)
		}
	}

	return iteration{allHandled: all}, nil
}

func outcomeDetail(ok bool) string {
	if ok {
		return "handled"
	}
	return "not found"
}

// safeHandle 执行处理器，panic 视为失败
func (w *Watchdog) safeHandle(h handler.Handler, env *handler.Env) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("处理器 %s 异常: %v", h.Name(), r)
			ok = false
		}
	}()
	return h.Handle(env)
}

// resolveMain 返回本轮的顶层窗口列表和第一个标题匹配的主窗口
func (w *Watchdog) resolveMain() ([]uia.Element, uia.Element) {
	wins, err := w.desktop.Windows()
	if err != nil {
		logger.Warn("枚举窗口失败: %v", err)
		return nil, nil
	}
	for _, win := range wins {
		if w.opts.WindowPattern.MatchString(win.Name()) {
			return wins, win
		}
	}
	return wins, nil
}

func (w *Watchdog) reportMissing() {
	msg := fmt.Sprintf("未找到匹配 %q 的主窗口", w.opts.WindowPattern.String())
	if w.opts.ProcessName != "" && w.isRunning != nil && !w.isRunning(w.opts.ProcessName) {
		msg += fmt.Sprintf("，进程 %s 未运行", w.opts.ProcessName)
	}
	logger.Warn("%s，%v 后重试", msg, w.opts.RetryDelay)
}

func (w *Watchdog) capture() (focus.Snapshot, bool) {
	if w.focus == nil || !w.opts.RestoreFocus {
		return focus.Snapshot{}, false
	}
	snap, err := w.focus.Capture()
	if err != nil {
		logger.Debug("记录前台窗口失败: %v", err)
		return focus.Snapshot{}, false
	}
	return snap, true
}

func (w *Watchdog) restore(snap focus.Snapshot) {
	if err := w.focus.Restore(snap); err != nil {
		if errors.Is(err, focus.ErrGone) {
			logger.Debug("前台窗口 %q 已关闭，跳过恢复", snap.Title)
			return
		}
		logger.Warn("恢复前台窗口 %q 失败: %v", snap.Title, err)
	}
}

// staticDesktop 复用处理器执行前刚枚举的窗口
type staticDesktop []uia.Element

func (d staticDesktop) Windows() ([]uia.Element, error) {
	return d, nil
}
