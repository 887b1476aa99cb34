package focus

import "math"

// 坐标空间：
//   - UIA 坐标: pywinauto 以 DPI Aware 方式运行，返回物理像素
//   - 输入坐标: robotgo.Move 期望的坐标，可能是物理或逻辑像素
//
// inputScale = 物理屏幕尺寸 / robotgo 报告的屏幕尺寸
// 输入坐标 = UIA 坐标 / inputScale

// normalizeScale 过滤异常比例，接近 1 时视为 1
func normalizeScale(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 1.0
	}
	if v < 0.5 || v > 4.0 {
		return 1.0
	}
	if math.Abs(v-1.0) < 0.05 {
		return 1.0
	}
	return v
}

// scaleInt 缩放整数值
func scaleInt(value int, factor float64) int {
	if factor <= 0 {
		return value
	}
	return int(math.Round(float64(value) * factor))
}

// toInputPoint 按比例把 UIA 物理坐标换算为输入坐标
func toInputPoint(x, y int, scaleX, scaleY float64) (int, int) {
	if scaleX <= 0 {
		scaleX = 1.0
	}
	if scaleY <= 0 {
		scaleY = 1.0
	}
	return scaleInt(x, 1.0/scaleX), scaleInt(y, 1.0/scaleY)
}
