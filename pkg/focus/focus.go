// Package focus 记录并恢复前台窗口，并提供鼠标点击
package focus

import (
	"errors"
	"fmt"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/zoomwatch/pkg/process"
)

// ErrGone 之前的前台窗口所属进程已退出
var ErrGone = errors.New("previously focused window no longer exists")

// Snapshot 前台窗口快照
type Snapshot struct {
	PID   int
	Title string
}

// Tracker 记录/恢复前台窗口
type Tracker interface {
	Capture() (Snapshot, error)
	Restore(Snapshot) error
}

// Robot 基于 robotgo 的 Tracker 实现，同时实现 uia.Clicker
type Robot struct {
	activePID   func() int
	activeTitle func() string
	activate    func(pid int) error
	exists      func(pid int) bool
	move        func(x, y int)
	click       func()
	// toInput 将 UIA 坐标换算为输入坐标，nil 表示不换算
	toInput     func(x, y int) (int, int)
}

// NewRobot 创建使用 robotgo 的实现
func NewRobot() *Robot {
	return &Robot{
		activePID:   func() int { return int(robotgo.GetPid()) },
		activeTitle: func() string { return robotgo.GetTitle() },
		activate:    func(pid int) error { return robotgo.ActivePid(pid) },
		exists:      process.Exists,
		move:        func(x, y int) { robotgo.Move(x, y) },
		click:       func() { robotgo.Click("left", false) },
		toInput:     normalizePointForInput,
	}
}

// Capture 获取当前前台窗口
func (r *Robot) Capture() (Snapshot, error) {
	pid := r.activePID()
	if pid <= 0 {
		return Snapshot{}, fmt.Errorf("无法获取前台窗口")
	}
	return Snapshot{PID: pid, Title: r.activeTitle()}, nil
}

// Restore 重新激活快照中的窗口
func (r *Robot) Restore(s Snapshot) error {
	if !r.exists(s.PID) {
		return fmt.Errorf("%w: PID=%d", ErrGone, s.PID)
	}
	if r.activePID() == s.PID {
		return nil
	}
	if err := r.activate(s.PID); err != nil {
		return fmt.Errorf("激活窗口失败: %w", err)
	}
	return nil
}

// ClickAt 移动鼠标到 UIA 屏幕坐标 (物理像素) 并左键单击
// 多显示器下坐标可能为负数
func (r *Robot) ClickAt(x, y int) error {
	if r.toInput != nil {
		x, y = r.toInput(x, y)
	}
	r.move(x, y)
	robotgo.MilliSleep(50) // 确保鼠标到位
	r.click()
	return nil
}
