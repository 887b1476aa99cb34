// Package cmdutil 提供子进程创建的平台相关辅助函数
package cmdutil

import (
	"context"
	"os/exec"
)

// Command 创建子进程命令，Windows 上不弹出控制台窗口
func Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	HideWindow(cmd)
	return cmd
}
