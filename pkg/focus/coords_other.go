//go:build !windows

package focus

// normalizePointForInput 非 Windows 平台无需缩放
func normalizePointForInput(x, y int) (int, int) {
	return x, y
}
