package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "ZOOMWATCH_"

// LoadDotEnv 加载 .env 文件到进程环境变量，文件不存在时忽略
// 已存在的环境变量不会被覆盖
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("加载 %s 失败: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv 用 ZOOMWATCH_* 环境变量覆盖配置
func ApplyEnv(cfg *WatchConfig) error {
	return applyEnv(cfg, os.LookupEnv)
}

func applyEnv(cfg *WatchConfig, lookup func(string) (string, bool)) error {
	ints := []struct {
		key string
		dst *int
	}{
		{"POLL_CHOICE", &cfg.PollChoice},
		{"INTERVAL_MS", &cfg.IntervalMs},
		{"MAX_ITERATIONS", &cfg.MaxIterations},
	}
	for _, e := range ints {
		v, ok := lookup(EnvPrefix + e.key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s 不是整数: %q", EnvPrefix, e.key, v)
		}
		*e.dst = n
	}

	strs := []struct {
		key string
		dst *string
	}{
		{"WINDOW_PATTERN", &cfg.WindowTitlePattern},
		{"AUDIO_SCOPE", &cfg.AudioScope},
		{"LOG_LEVEL", &cfg.LogLevel},
		{"LOG_FILE", &cfg.LogFile},
	}
	for _, e := range strs {
		if v, ok := lookup(EnvPrefix + e.key); ok && v != "" {
			*e.dst = v
		}
	}

	return nil
}
