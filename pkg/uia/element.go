// Package uia exposes the UI Automation accessibility tree of running
// desktop applications as a tree of Elements.
//
// The production implementation drives pywinauto (UIA backend) through a
// short-lived Python subprocess per query, see Bridge.
package uia

import "errors"

// Control type names as reported by the UIA backend
const (
	TypeWindow      = "Window"
	TypePane        = "Pane"
	TypeGroup       = "Group"
	TypeText        = "Text"
	TypeButton      = "Button"
	TypeRadioButton = "RadioButton"
)

var (
	// ErrUnsupported is returned when UI Automation is not available on this platform
	ErrUnsupported = errors.New("UI Automation is not supported on this platform (requires Windows + Python + pywinauto)")
	// ErrStale is returned when an element no longer exists where it was observed
	ErrStale = errors.New("element is stale")
)

// Rect represents element bounds in screen coordinates
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Center returns the centre point of the rect
func (r Rect) Center() (int, int) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Empty reports whether the rect has no area
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Element is one node of the accessibility tree.
type Element interface {
	// Name is the element's label (window_text in UIA terms).
	Name() string
	ControlType() string
	Rect() Rect
	// Children enumerates the immediate children. An error means the
	// subtree below this element could not be read.
	Children() ([]Element, error)
	Click() error
	// Select activates a selection item such as a radio button.
	Select() error
	SetFocus() error
}

// Desktop enumerates top-level windows.
type Desktop interface {
	Windows() ([]Element, error)
}
