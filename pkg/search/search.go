// Package search 提供无障碍树上的深度优先搜索
//
// 三个弹窗处理器共用同一套遍历：目标节点谓词 + 动作按钮谓词 + 查找范围。
// 任意子树读取失败只影响该子树，兄弟分支照常搜索。
package search

import (
	"github.com/zoeyai/zoomwatch/internal/logger"
	"github.com/zoeyai/zoomwatch/pkg/uia"
)

// DefaultMaxDepth 默认最大搜索深度
const DefaultMaxDepth = 32

// Visit 访问函数的返回值，控制遍历走向
type Visit int

const (
	// Continue 继续遍历当前节点的子树
	Continue Visit = iota
	// SkipChildren 跳过当前节点的子树
	SkipChildren
	// Stop 结束整个遍历
	Stop
)

// Visitor 在每个后代节点上被调用，depth 从 1 开始
type Visitor func(el uia.Element, depth int) Visit

// Walk 前序遍历 root 的所有后代（不含 root 本身）
// 返回 false 表示遍历被 Stop 提前终止
func Walk(root uia.Element, maxDepth int, fn Visitor) bool {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return walk(root, 0, maxDepth, fn)
}

func walk(parent uia.Element, depth, maxDepth int, fn Visitor) bool {
	if depth >= maxDepth {
		return true
	}

	kids, err := parent.Children()
	if err != nil {
		logger.Debug("跳过子树 %q: %v", parent.Name(), err)
		return true
	}

	for _, child := range kids {
		switch fn(child, depth+1) {
		case Stop:
			return false
		case SkipChildren:
			continue
		}
		if !walk(child, depth+1, maxDepth, fn) {
			return false
		}
	}
	return true
}

// Collect 按遍历顺序收集所有满足 pred 的后代
func Collect(root uia.Element, pred Predicate, maxDepth int) []uia.Element {
	var out []uia.Element
	Walk(root, maxDepth, func(el uia.Element, _ int) Visit {
		if pred(el) {
			out = append(out, el)
		}
		return Continue
	})
	return out
}

// First 返回遍历顺序中第一个满足 pred 的后代
func First(root uia.Element, pred Predicate, maxDepth int) (uia.Element, bool) {
	var found uia.Element
	Walk(root, maxDepth, func(el uia.Element, _ int) Visit {
		if pred(el) {
			found = el
			return Stop
		}
		return Continue
	})
	return found, found != nil
}
