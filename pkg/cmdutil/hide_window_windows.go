package cmdutil

import (
	"os/exec"
	"syscall"
)

// HideWindow 隐藏子进程的控制台窗口（python.exe 每次调用都会弹出）
func HideWindow(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.HideWindow = true
}
