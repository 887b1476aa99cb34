package handler

import (
	"github.com/zoeyai/zoomwatch/internal/logger"
	"github.com/zoeyai/zoomwatch/pkg/search"
	"github.com/zoeyai/zoomwatch/pkg/uia"
)

const (
	recordingText = "being recorded"
	recordingOK   = "OK"
	audioText     = "Not hearing anything?"
)

// notice 在主窗口子树中查找提示文字并点击对应按钮
type notice struct {
	name  string
	query search.Query
}

func (n *notice) Name() string { return n.name }

func (n *notice) Handle(env *Env) bool {
	if env.Main == nil {
		return false
	}

	el, ok := search.Find(env.Main, n.query)
	if !ok {
		return false
	}
	logger.Info("已点击 %q", el.Name())
	return true
}

func logTarget(el uia.Element) {
	logger.Info("发现提示文字: %s", el.Name())
}

// NewRecording 创建录制提示处理器：点击标签恰为 "OK" 的按钮
func NewRecording(maxDepth int) Handler {
	return &notice{
		name: "recording",
		query: search.Query{
			Target:   search.And(search.Container, search.NameContains(recordingText)),
			Action:   search.And(isButton, search.NameEquals(recordingOK)),
			Scope:    search.ScopeGlobal,
			MaxDepth: maxDepth,
			OnTarget: logTarget,
		},
	}
}

// NewAudio 创建音频提示处理器
// buttons 为可接受的按钮标签（包含匹配），scope 决定按钮的查找范围
func NewAudio(buttons []string, scope search.Scope, maxDepth int) Handler {
	return &notice{
		name: "audio",
		query: search.Query{
			Target:   search.And(search.Container, search.NameContains(audioText)),
			Action:   search.And(isButton, search.NameContainsAny(buttons...)),
			Scope:    scope,
			MaxDepth: maxDepth,
			OnTarget: logTarget,
		},
	}
}
