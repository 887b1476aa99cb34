package uia

import (
	"fmt"
	"sync"
)

// WindowInfo is a top-level window as listed by the bridge
type WindowInfo struct {
	Handle      int    `json:"handle"`
	Title       string `json:"title"`
	PID         int    `json:"pid"`
	ClassName   string `json:"class_name"`
	ControlType string `json:"control_type"`
	Rect        Rect   `json:"rect"`
}

// Node is a snapshot of one element produced by the bridge.
// Path is the child-index path from the owning top-level window.
type Node struct {
	Name         string  `json:"name"`
	ControlType  string  `json:"control_type"`
	ClassName    string  `json:"class_name"`
	AutomationID string  `json:"automation_id"`
	Rect         Rect    `json:"rect"`
	IsEnabled    bool    `json:"is_enabled"`
	IsVisible    bool    `json:"is_visible"`
	Path         []int   `json:"path"`
	Error        string  `json:"error,omitempty"`
	Truncated    bool    `json:"truncated,omitempty"`
	Children     []*Node `json:"children"`
}

// nodeElement is an Element backed by a snapshot node
type nodeElement struct {
	win  *windowElement
	node *Node
}

func (e *nodeElement) Name() string        { return e.node.Name }
func (e *nodeElement) ControlType() string { return e.node.ControlType }
func (e *nodeElement) Rect() Rect          { return e.node.Rect }

func (e *nodeElement) Children() ([]Element, error) {
	if e.node.Error != "" {
		return nil, fmt.Errorf("enumerate children of %q: %s", e.node.Name, e.node.Error)
	}
	return e.win.wrap(e.node.Children), nil
}

func (e *nodeElement) Click() error {
	return e.win.act(e.node.Path, e.node.Name, actionClick)
}

func (e *nodeElement) Select() error {
	return e.win.act(e.node.Path, e.node.Name, actionSelect)
}

func (e *nodeElement) SetFocus() error {
	return e.win.act(e.node.Path, e.node.Name, actionFocus)
}

// windowElement is a top-level window. Its subtree is dumped on first use
// and dumped again after any successful action inside the window.
type windowElement struct {
	b    *Bridge
	info WindowInfo

	mu   sync.Mutex
	root *Node
}

func (w *windowElement) Name() string { return w.info.Title }

func (w *windowElement) ControlType() string {
	if w.info.ControlType == "" {
		return TypeWindow
	}
	return w.info.ControlType
}

func (w *windowElement) Rect() Rect { return w.info.Rect }

func (w *windowElement) Children() ([]Element, error) {
	root, err := w.snapshot()
	if err != nil {
		return nil, err
	}
	if root.Error != "" {
		return nil, fmt.Errorf("enumerate children of window %q: %s", w.info.Title, root.Error)
	}
	return w.wrap(root.Children), nil
}

func (w *windowElement) Click() error {
	return w.act(nil, w.info.Title, actionClick)
}

func (w *windowElement) Select() error {
	return w.act(nil, w.info.Title, actionSelect)
}

func (w *windowElement) SetFocus() error {
	return w.act(nil, w.info.Title, actionFocus)
}

// snapshot returns the cached dump. Failed dumps are not cached.
func (w *windowElement) snapshot() (*Node, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.root != nil {
		return w.root, nil
	}
	root, err := w.b.DumpTree(w.info.Handle)
	if err != nil {
		return nil, err
	}
	w.root = root
	return root, nil
}

func (w *windowElement) invalidate() {
	w.mu.Lock()
	w.root = nil
	w.mu.Unlock()
}

// act performs an action on the element at path. A successful click or
// select may change the window, so the cached dump is dropped.
func (w *windowElement) act(path []int, name, action string) error {
	var err error
	if action == actionClick {
		err = w.b.click(w.info.Handle, path, name)
	} else {
		err = w.b.invoke(w.info.Handle, path, name, action)
	}
	if err == nil && action != actionFocus {
		w.invalidate()
	}
	return err
}

func (w *windowElement) wrap(nodes []*Node) []Element {
	out := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		out = append(out, &nodeElement{win: w, node: n})
	}
	return out
}
