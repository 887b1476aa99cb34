package search

import (
	"github.com/zoeyai/zoomwatch/internal/logger"
	"github.com/zoeyai/zoomwatch/pkg/uia"
)

// Scope 动作按钮的查找范围
type Scope int

const (
	// ScopeGlobal 任意后代中满足 Action 的节点都可执行动作，Target 仅用于记录
	ScopeGlobal Scope = iota
	// ScopeTargetChildren 只在满足 Target 的节点的直接子元素中查找 Action
	ScopeTargetChildren
)

func (s Scope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeTargetChildren:
		return "target-children"
	default:
		return "unknown"
	}
}

// Query 一次"找到弹窗并点击按钮"的搜索描述
type Query struct {
	// Target 弹窗标识节点，可为 nil
	Target Predicate
	// Action 要执行动作的按钮
	Action Predicate
	Scope  Scope
	// MaxDepth 最大深度，<= 0 时使用 DefaultMaxDepth
	MaxDepth int
	// OnTarget 命中 Target 时回调
	OnTarget func(uia.Element)
	// Act 对按钮执行的动作，默认为 Click
	Act func(uia.Element) error
}

// Find 深度优先搜索并对第一个命中的按钮执行动作
// 动作成功后立即结束搜索；动作失败则记录日志并继续查找下一个候选
func Find(root uia.Element, q Query) (uia.Element, bool) {
	if q.Action == nil {
		return nil, false
	}
	act := q.Act
	if act == nil {
		act = uia.Element.Click
	}

	tryAct := func(el uia.Element) bool {
		if err := act(el); err != nil {
			logger.Warn("对 %s %q 执行动作失败: %v", el.ControlType(), el.Name(), err)
			return false
		}
		return true
	}

	var hit uia.Element
	Walk(root, q.MaxDepth, func(el uia.Element, _ int) Visit {
		if q.Target != nil && q.Target(el) {
			if q.OnTarget != nil {
				q.OnTarget(el)
			}
			if q.Scope == ScopeTargetChildren {
				if btn, ok := actAmongChildren(el, q.Action, tryAct); ok {
					hit = btn
					return Stop
				}
			}
		}

		if q.Scope == ScopeGlobal && q.Action(el) {
			if tryAct(el) {
				hit = el
				return Stop
			}
			return SkipChildren
		}
		return Continue
	})

	return hit, hit != nil
}

func actAmongChildren(target uia.Element, action Predicate, tryAct func(uia.Element) bool) (uia.Element, bool) {
	kids, err := target.Children()
	if err != nil {
		logger.Debug("读取 %q 的子元素失败: %v", target.Name(), err)
		return nil, false
	}
	for _, k := range kids {
		if action(k) && tryAct(k) {
			return k, true
		}
	}
	return nil, false
}
