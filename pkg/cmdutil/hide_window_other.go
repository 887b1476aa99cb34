//go:build !windows

package cmdutil

import "os/exec"

// HideWindow 非 Windows 平台无控制台窗口，空实现
func HideWindow(_ *exec.Cmd) {}
