// Package uiatest provides an in-memory accessibility tree for tests.
package uiatest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zoeyai/zoomwatch/pkg/uia"
)

// Action kinds recorded by a Recorder
const (
	ActionClick  = "click"
	ActionSelect = "select"
	ActionFocus  = "focus"
)

// ErrBroken is the default error of a subtree marked with Broken
var ErrBroken = errors.New("uiatest: subtree unavailable")

// Action is one recorded interaction
type Action struct {
	Kind string
	Name string
}

func (a Action) String() string { return fmt.Sprintf("%s(%s)", a.Kind, a.Name) }

// Recorder collects actions performed on a tree, in order
type Recorder struct {
	mu      sync.Mutex
	actions []Action
}

// Actions returns a copy of the recorded actions
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Action(nil), r.actions...)
}

// Count returns how many actions of the kind were recorded
func (r *Recorder) Count(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, a := range r.actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Recorder) add(kind, name string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.actions = append(r.actions, Action{Kind: kind, Name: name})
	r.mu.Unlock()
}

// Element is a fake uia.Element
type Element struct {
	Label  string
	Type   string
	Bounds uia.Rect
	Kids   []*Element

	// ChildErr is returned by Children when set
	ChildErr error
	// ActErr is returned by Click, Select and SetFocus when set
	ActErr error
	// OnClick runs after a successful click, e.g. to make a popup disappear
	OnClick func()

	rec *Recorder
}

// New builds an element
func New(controlType, name string, children ...*Element) *Element {
	return &Element{Label: name, Type: controlType, Kids: children}
}

// Window builds a top-level window
func Window(title string, children ...*Element) *Element {
	return New(uia.TypeWindow, title, children...)
}

// Pane builds a container element
func Pane(name string, children ...*Element) *Element {
	return New(uia.TypePane, name, children...)
}

// Group builds a group element
func Group(name string, children ...*Element) *Element {
	return New(uia.TypeGroup, name, children...)
}

// Text builds a text element
func Text(name string) *Element { return New(uia.TypeText, name) }

// Button builds a button element
func Button(name string) *Element { return New(uia.TypeButton, name) }

// Radio builds a radio button element
func Radio(name string) *Element { return New(uia.TypeRadioButton, name) }

// Broken marks the subtree below e as unreadable
func (e *Element) Broken() *Element {
	e.ChildErr = ErrBroken
	return e
}

// Track attaches rec to every element under the roots and returns it
func Track(rec *Recorder, roots ...*Element) *Recorder {
	if rec == nil {
		rec = &Recorder{}
	}
	for _, r := range roots {
		r.attach(rec)
	}
	return rec
}

func (e *Element) attach(rec *Recorder) {
	e.rec = rec
	for _, k := range e.Kids {
		k.attach(rec)
	}
}

func (e *Element) Name() string        { return e.Label }
func (e *Element) ControlType() string { return e.Type }
func (e *Element) Rect() uia.Rect      { return e.Bounds }

func (e *Element) Children() ([]uia.Element, error) {
	if e.ChildErr != nil {
		return nil, e.ChildErr
	}
	out := make([]uia.Element, len(e.Kids))
	for i, k := range e.Kids {
		out[i] = k
	}
	return out, nil
}

func (e *Element) Click() error {
	if e.ActErr != nil {
		return e.ActErr
	}
	e.rec.add(ActionClick, e.Label)
	if e.OnClick != nil {
		e.OnClick()
	}
	return nil
}

func (e *Element) Select() error {
	if e.ActErr != nil {
		return e.ActErr
	}
	e.rec.add(ActionSelect, e.Label)
	return nil
}

func (e *Element) SetFocus() error {
	if e.ActErr != nil {
		return e.ActErr
	}
	e.rec.add(ActionFocus, e.Label)
	return nil
}

// Remove detaches child from e
func (e *Element) Remove(child *Element) {
	for i, k := range e.Kids {
		if k == child {
			e.Kids = append(e.Kids[:i], e.Kids[i+1:]...)
			return
		}
	}
}

// Desktop is a fake uia.Desktop
type Desktop struct {
	*Recorder

	mu    sync.Mutex
	wins  []*Element
	Err   error
	calls int
}

// NewDesktop builds a desktop whose windows share one Recorder
func NewDesktop(wins ...*Element) *Desktop {
	d := &Desktop{Recorder: &Recorder{}, wins: wins}
	Track(d.Recorder, wins...)
	return d
}

// Windows implements uia.Desktop
func (d *Desktop) Windows() ([]uia.Element, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.Err != nil {
		return nil, d.Err
	}
	out := make([]uia.Element, len(d.wins))
	for i, w := range d.wins {
		out[i] = w
	}
	return out, nil
}

// SetWindows replaces the top-level windows
func (d *Desktop) SetWindows(wins ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.wins = wins
	Track(d.Recorder, wins...)
}

// Calls returns how many times Windows was called
func (d *Desktop) Calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}
