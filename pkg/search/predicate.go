package search

import (
	"strings"

	"github.com/zoeyai/zoomwatch/pkg/uia"
)

// Predicate 节点匹配条件
type Predicate func(uia.Element) bool

// NameContains 标签包含子串（区分大小写）
func NameContains(sub string) Predicate {
	return func(el uia.Element) bool {
		return strings.Contains(el.Name(), sub)
	}
}

// NameContainsAny 标签包含任一子串
func NameContainsAny(subs ...string) Predicate {
	return func(el uia.Element) bool {
		name := el.Name()
		for _, s := range subs {
			if s != "" && strings.Contains(name, s) {
				return true
			}
		}
		return false
	}
}

// NameEquals 标签完全相等
func NameEquals(name string) Predicate {
	return func(el uia.Element) bool {
		return el.Name() == name
	}
}

// TypeIn 控件类型属于给定集合
func TypeIn(types ...string) Predicate {
	set := make(map[string]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	return func(el uia.Element) bool {
		return set[el.ControlType()]
	}
}

// And 所有条件同时满足
func And(ps ...Predicate) Predicate {
	return func(el uia.Element) bool {
		for _, p := range ps {
			if !p(el) {
				return false
			}
		}
		return true
	}
}

// Or 任一条件满足
func Or(ps ...Predicate) Predicate {
	return func(el uia.Element) bool {
		for _, p := range ps {
			if p(el) {
				return true
			}
		}
		return false
	}
}

// Container 文本或容器类节点（弹窗的提示文字通常挂在这些节点上）
var Container = TypeIn(uia.TypeText, uia.TypePane, uia.TypeGroup)
