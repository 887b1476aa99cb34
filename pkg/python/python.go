// Package python 提供 Python 环境检测功能
package python

import (
	"context"
	"os/exec"
	"strings"
	"sync"

	"github.com/zoeyai/zoomwatch/pkg/cmdutil"
)

// Info Python 环境信息
type Info struct {
	Available    bool   // Python 3 是否可用
	Version      string // 版本号，如 "3.11.5"
	Path         string // 可执行文件路径
	HasPywinauto bool   // 是否已安装 pywinauto
}

// Candidates 按优先级检测的解释器名称
var Candidates = []string{"python3", "python"}

var (
	detectOnce sync.Once
	detected   *Info
)

// Detect 检测 Python 环境，结果在进程内缓存
func Detect() *Info {
	detectOnce.Do(func() {
		detected = detect(Candidates, exec.LookPath, runOutput)
	})
	return detected
}

func detect(candidates []string, lookPath func(string) (string, error), run func(string, ...string) (string, error)) *Info {
	info := &Info{}

	for _, name := range candidates {
		path, err := lookPath(name)
		if err != nil {
			continue
		}

		version, err := parseVersion(run(path, "--version"))
		if err != nil {
			continue
		}

		// 跳过 Python 2.x
		if strings.HasPrefix(version, "2.") {
			continue
		}

		info.Available = true
		info.Version = version
		info.Path = path

		_, err = run(path, "-c", "import pywinauto")
		info.HasPywinauto = err == nil
		return info
	}

	return info
}

// parseVersion 解析 "Python 3.11.5" 形式的输出
func parseVersion(output string, err error) (string, error) {
	if err != nil {
		return "", err
	}

	line := strings.TrimSpace(output)
	parts := strings.SplitN(line, " ", 2)
	if len(parts) == 2 {
		return parts[1], nil
	}

	return line, nil
}

func runOutput(name string, args ...string) (string, error) {
	cmd := cmdutil.Command(context.Background(), name, args...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}
