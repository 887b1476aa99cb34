package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// AudioScope 音频弹窗按钮的查找范围
const (
	// AudioScopeGlobal 在主窗口的整棵子树中查找按钮。
	// 不要求提示文字存在：没有音频弹窗时，标签包含 audio_buttons 的其他按钮
	// (例如 "Close panel") 也会被点击。
	AudioScopeGlobal = "global"
	// AudioScopePopup 只在命中弹窗节点的直接子元素中查找按钮，
	// 没有 "Not hearing anything?" 提示时不会点击任何按钮
	AudioScopePopup = "popup"
)

// WatchConfig 监视循环配置
type WatchConfig struct {
	// WindowTitlePattern 主窗口标题正则
	WindowTitlePattern string `json:"window_title_pattern"`
	// ProcessName 目标进程名（部分匹配，仅用于诊断日志）
	ProcessName string `json:"process_name"`
	// PollChoice 投票选项序号，从 1 开始
	PollChoice int `json:"poll_choice"`

	IntervalMs    int `json:"interval_ms"`
	RetryDelayMs  int `json:"retry_delay_ms"`
	SettleDelayMs int `json:"settle_delay_ms"`
	MaxIterations int `json:"max_iterations"`
	MaxDepth      int `json:"max_depth"`

	RestoreFocus bool `json:"restore_focus"`

	AudioButtons []string `json:"audio_buttons"`
	// AudioScope 默认 global，见 AudioScopeGlobal 的说明
	AudioScope string `json:"audio_scope"`

	LogLevel string `json:"log_level"`
	LogFile  string `json:"log_file"`
}

// DefaultWatchConfig 默认配置
func DefaultWatchConfig() *WatchConfig {
	return &WatchConfig{
		WindowTitlePattern: ".*Zoom Meeting.*",
		ProcessName:        "Zoom",
		PollChoice:         1,
		IntervalMs:         10000,
		RetryDelayMs:       10000,
		SettleDelayMs:      500,
		MaxIterations:      500,
		MaxDepth:           32,
		RestoreFocus:       true,
		AudioButtons:       []string{"Close"},
		AudioScope:         AudioScopeGlobal,
		LogLevel:           "INFO",
	}
}

// Interval 两次迭代之间的休眠时间
func (c *WatchConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// RetryDelay 未找到主窗口时的等待时间
func (c *WatchConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// SettleDelay 每个处理器执行前的等待时间
func (c *WatchConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// Validate 校验配置取值
func (c *WatchConfig) Validate() error {
	if c.WindowTitlePattern == "" {
		return fmt.Errorf("window_title_pattern 不能为空")
	}
	if _, err := regexp.Compile(c.WindowTitlePattern); err != nil {
		return fmt.Errorf("window_title_pattern 无效: %w", err)
	}
	if c.PollChoice < 1 {
		return fmt.Errorf("poll_choice 必须 >= 1, 实际为 %d", c.PollChoice)
	}
	if c.IntervalMs <= 0 {
		return fmt.Errorf("interval_ms 必须 > 0, 实际为 %d", c.IntervalMs)
	}
	if c.RetryDelayMs <= 0 {
		return fmt.Errorf("retry_delay_ms 必须 > 0, 实际为 %d", c.RetryDelayMs)
	}
	if c.SettleDelayMs < 0 {
		return fmt.Errorf("settle_delay_ms 不能为负数")
	}
	if c.MaxIterations < 1 {
		return fmt.Errorf("max_iterations 必须 >= 1, 实际为 %d", c.MaxIterations)
	}
	if c.MaxDepth < 1 {
		return fmt.Errorf("max_depth 必须 >= 1, 实际为 %d", c.MaxDepth)
	}
	if len(c.AudioButtons) == 0 {
		return fmt.Errorf("audio_buttons 不能为空")
	}
	switch c.AudioScope {
	case AudioScopeGlobal, AudioScopePopup:
	default:
		return fmt.Errorf("audio_scope 只能是 %q 或 %q, 实际为 %q", AudioScopeGlobal, AudioScopePopup, c.AudioScope)
	}
	return nil
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器，配置位于 ~/.zoomwatch/config.json
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	return NewManagerWithDir(filepath.Join(homeDir, ".zoomwatch"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

// NewManagerWithFile 使用指定配置文件创建配置管理器
func NewManagerWithFile(path string) *Manager {
	return &Manager{
		configDir:  filepath.Dir(path),
		configFile: path,
	}
}

// Load 加载配置
// 文件不存在时返回默认配置；文件中缺失的字段保持默认值
func (m *Manager) Load() (*WatchConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return DefaultWatchConfig(), nil
	}

	data, err := os.ReadFile(m.configFile)
	if err != nil {
		return DefaultWatchConfig(), fmt.Errorf("读取配置文件失败: %w", err)
	}

	cfg := DefaultWatchConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return DefaultWatchConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}

	return cfg, nil
}

// Save 保存配置
func (m *Manager) Save(cfg *WatchConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化配置失败: %w", err)
	}

	if err := os.WriteFile(m.configFile, data, 0600); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}

	return nil
}

// Clear 删除配置文件
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}

	return os.Remove(m.configFile)
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}
