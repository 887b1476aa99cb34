// Package handler 实现三个弹窗处理器：投票、录制提示、音频提示
//
// 处理器从不返回错误：所有查找和点击失败都记录日志并转换为 false，
// 由下一轮迭代重试。
package handler

import (
	"github.com/zoeyai/zoomwatch/pkg/config"
	"github.com/zoeyai/zoomwatch/pkg/search"
	"github.com/zoeyai/zoomwatch/pkg/uia"
)

// Env 一次迭代中处理器可见的环境
type Env struct {
	// Desktop 用于枚举顶层窗口
	Desktop uia.Desktop
	// Main 本轮解析到的应用主窗口
	Main uia.Element
}

// Handler 弹窗处理器
type Handler interface {
	Name() string
	// Handle 查找并处理弹窗，成功返回 true
	Handle(env *Env) bool
}

// Defaults 按固定顺序（投票 → 录制 → 音频）构建处理器
func Defaults(cfg *config.WatchConfig) []Handler {
	scope := search.ScopeGlobal
	if cfg.AudioScope == config.AudioScopePopup {
		scope = search.ScopeTargetChildren
	}

	return []Handler{
		NewPoll(cfg.PollChoice, cfg.MaxDepth),
		NewRecording(cfg.MaxDepth),
		NewAudio(cfg.AudioButtons, scope, cfg.MaxDepth),
	}
}

var (
	isButton = search.TypeIn(uia.TypeButton)
	isRadio  = search.TypeIn(uia.TypeRadioButton)
)
