package handler

import (
	"strings"

	"github.com/zoeyai/zoomwatch/internal/logger"
	"github.com/zoeyai/zoomwatch/pkg/search"
	"github.com/zoeyai/zoomwatch/pkg/uia"
)

const (
	pollTitle   = "Poll"
	submitLabel = "Submit"
)

// Poll 回答投票窗口：按序号选中单选项并提交
type Poll struct {
	// Choice 选项序号，从 1 开始
	Choice   int
	MaxDepth int
}

// NewPoll 创建投票处理器
func NewPoll(choice, maxDepth int) *Poll {
	return &Poll{Choice: choice, MaxDepth: maxDepth}
}

func (p *Poll) Name() string { return "poll" }

// Handle 在所有顶层窗口中找到第一个标题含 "Poll" 的窗口并作答
func (p *Poll) Handle(env *Env) bool {
	logger.Debug("尝试回答投票...")

	wins, err := env.Desktop.Windows()
	if err != nil {
		logger.Warn("枚举窗口失败: %v", err)
		return false
	}

	for _, w := range wins {
		if strings.Contains(w.Name(), pollTitle) {
			logger.Info("发现投票窗口: %s", w.Name())
			return p.answer(w)
		}
	}

	return false
}

func (p *Poll) answer(win uia.Element) bool {
	if err := win.SetFocus(); err != nil {
		logger.Debug("激活投票窗口失败: %v", err)
	}

	options := search.Collect(win, isRadio, p.MaxDepth)
	if p.Choice < 1 || p.Choice > len(options) {
		logger.Warn("无效的选项序号: %d (共 %d 个选项)", p.Choice, len(options))
		return false
	}

	selected := options[p.Choice-1]
	logger.Info("选择第 %d 项: %s", p.Choice, selected.Name())
	if err := selected.Select(); err != nil {
		logger.Warn("选择选项失败: %v", err)
		return false
	}

	submit, ok := search.First(win, search.And(isButton, search.NameContains(submitLabel)), p.MaxDepth)
	if !ok {
		logger.Warn("未找到 Submit 按钮")
		return false
	}

	logger.Info("点击 %s...", submit.Name())
	if err := submit.Click(); err != nil {
		logger.Warn("点击 Submit 失败: %v", err)
		return false
	}
	return true
}
