//go:build windows

package focus

import (
	"sync"
	"syscall"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/zoomwatch/internal/logger"
)

var (
	user32            = syscall.NewLazyDLL("user32.dll")
	procGetDpiForWin  = user32.NewProc("GetDpiForWindow")
	procGetForeground = user32.NewProc("GetForegroundWindow")
	procGetDesktop    = user32.NewProc("GetDesktopWindow")
)

// 首次点击时探测一次
var (
	scaleOnce   sync.Once
	inputScaleX = 1.0
	inputScaleY = 1.0
)

// dpiScale 当前 DPI 缩放比例，1.0 = 100%
func dpiScale() float64 {
	if procGetDpiForWin.Find() != nil {
		return 1.0
	}
	hwnd, _, _ := procGetForeground.Call()
	if hwnd == 0 {
		hwnd, _, _ = procGetDesktop.Call()
	}
	if hwnd == 0 {
		return 1.0
	}
	d, _, _ := procGetDpiForWin.Call(hwnd)
	if d == 0 {
		return 1.0
	}
	return normalizeScale(float64(d) / 96.0)
}

// detectInputScale 对比截图尺寸与 robotgo.GetScreenSize 推断 robotgo 的坐标空间
func detectInputScale() (float64, float64) {
	w, h := robotgo.GetScreenSize()
	if w <= 0 || h <= 0 {
		return 1.0, 1.0
	}

	img, err := robotgo.CaptureImg()
	if err != nil || img == nil {
		s := dpiScale()
		return s, s
	}

	cw, ch := img.Bounds().Dx(), img.Bounds().Dy()
	if cw <= 0 || ch <= 0 {
		return 1.0, 1.0
	}
	return normalizeScale(float64(cw) / float64(w)), normalizeScale(float64(ch) / float64(h))
}

// normalizePointForInput 将 UIA 物理坐标转换为 robotgo 输入坐标
func normalizePointForInput(x, y int) (int, int) {
	scaleOnce.Do(func() {
		inputScaleX, inputScaleY = detectInputScale()
		logger.Debug("坐标缩放: x=%.3f y=%.3f", inputScaleX, inputScaleY)
	})
	return toInputPoint(x, y, inputScaleX, inputScaleY)
}
