package uia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/zoeyai/zoomwatch/pkg/cmdutil"
	"github.com/zoeyai/zoomwatch/pkg/python"
)

// Runner executes a Python script and returns its stdout
type Runner func(ctx context.Context, script string) (string, error)

// Clicker performs a synthetic mouse click at screen coordinates
type Clicker interface {
	ClickAt(x, y int) error
}

// Options configures a Bridge
type Options struct {
	// MaxDepth bounds the subtree dump of a window
	MaxDepth int
	// Timeout bounds each Python subprocess
	Timeout time.Duration
	// Clicker, when set, clicks elements with the mouse at the centre of
	// their freshly located rect instead of asking pywinauto to do it.
	Clicker Clicker
}

// DefaultOptions returns the bridge defaults
func DefaultOptions() *Options {
	return &Options{
		MaxDepth: 32,
		Timeout:  20 * time.Second,
	}
}

// Bridge implements Desktop on top of pywinauto
type Bridge struct {
	run  Runner
	opts Options
}

type response struct {
	Error   string       `json:"error"`
	Stale   bool         `json:"stale"`
	OK      bool         `json:"ok"`
	Windows []WindowInfo `json:"windows"`
	Root    *Node        `json:"root"`
	Rect    *Rect        `json:"rect"`
}

// IsSupported returns true if UIA is available on the current platform
func IsSupported() bool {
	if runtime.GOOS != "windows" {
		return false
	}
	info := python.Detect()
	return info.Available && info.HasPywinauto
}

// NewBridge creates a Bridge using the detected Python interpreter
func NewBridge(opts *Options) (*Bridge, error) {
	if !IsSupported() {
		return nil, ErrUnsupported
	}
	return NewBridgeWithRunner(pythonRunner(python.Detect().Path), opts), nil
}

// NewBridgeWithRunner creates a Bridge with a custom script runner
func NewBridgeWithRunner(run Runner, opts *Options) *Bridge {
	o := DefaultOptions()
	if opts != nil {
		if opts.MaxDepth > 0 {
			o.MaxDepth = opts.MaxDepth
		}
		if opts.Timeout > 0 {
			o.Timeout = opts.Timeout
		}
		o.Clicker = opts.Clicker
	}
	return &Bridge{run: run, opts: *o}
}

// pythonRunner runs scripts with `python -c`
func pythonRunner(pythonPath string) Runner {
	return func(ctx context.Context, script string) (string, error) {
		cmd := cmdutil.Command(ctx, pythonPath, "-c", script)
		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			return "", fmt.Errorf("python error: %w\nstderr: %s", err, strings.TrimSpace(stderr.String()))
		}
		return stdout.String(), nil
	}
}

// exec runs a script and decodes the JSON object on its last output line
func (b *Bridge) exec(script string) (*response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), b.opts.Timeout)
	defer cancel()

	out, err := b.run(ctx, script)
	if err != nil {
		return nil, err
	}

	line := lastLine(out)
	if line == "" {
		return nil, fmt.Errorf("empty bridge output")
	}

	var resp response
	if err := json.Unmarshal([]byte(line), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse bridge output: %w", err)
	}
	if resp.Stale {
		return nil, fmt.Errorf("%w: %s", ErrStale, resp.Error)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("bridge: %s", resp.Error)
	}
	return &resp, nil
}

func lastLine(out string) string {
	lines := strings.Split(strings.TrimSpace(out), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}

// ListWindows lists the top-level windows
func (b *Bridge) ListWindows() ([]WindowInfo, error) {
	resp, err := b.exec(listWindowsScript)
	if err != nil {
		return nil, fmt.Errorf("failed to list windows: %w", err)
	}
	return resp.Windows, nil
}

// Windows implements Desktop. Subtrees are dumped lazily per window.
func (b *Bridge) Windows() ([]Element, error) {
	infos, err := b.ListWindows()
	if err != nil {
		return nil, err
	}
	out := make([]Element, 0, len(infos))
	for _, info := range infos {
		out = append(out, &windowElement{b: b, info: info})
	}
	return out, nil
}

// DumpTree snapshots the subtree of a top-level window
func (b *Bridge) DumpTree(handle int) (*Node, error) {
	resp, err := b.exec(buildDumpTreeScript(handle, b.opts.MaxDepth))
	if err != nil {
		return nil, fmt.Errorf("failed to dump window %d: %w", handle, err)
	}
	if resp.Root == nil {
		return nil, fmt.Errorf("failed to dump window %d: no root in output", handle)
	}
	return resp.Root, nil
}

func (b *Bridge) invoke(handle int, path []int, name, action string) error {
	if _, err := b.exec(buildInvokeScript(handle, path, name, action)); err != nil {
		return fmt.Errorf("failed to %s %q: %w", action, name, err)
	}
	return nil
}

// click verifies the element and clicks it with the Clicker at its current
// centre. Without a Clicker, or when the element has no area, pywinauto clicks.
func (b *Bridge) click(handle int, path []int, name string) error {
	if b.opts.Clicker == nil {
		return b.invoke(handle, path, name, actionClick)
	}

	resp, err := b.exec(buildInvokeScript(handle, path, name, actionLocate))
	if err != nil {
		return fmt.Errorf("failed to locate %q: %w", name, err)
	}
	if resp.Rect == nil || resp.Rect.Empty() {
		return b.invoke(handle, path, name, actionClick)
	}

	x, y := resp.Rect.Center()
	if err := b.opts.Clicker.ClickAt(x, y); err != nil {
		return fmt.Errorf("failed to click %q at (%d, %d): %w", name, x, y, err)
	}
	return nil
}
