package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/zoeyai/zoomwatch/internal/logger"
	"github.com/zoeyai/zoomwatch/pkg/config"
	"github.com/zoeyai/zoomwatch/pkg/focus"
	"github.com/zoeyai/zoomwatch/pkg/handler"
	"github.com/zoeyai/zoomwatch/pkg/python"
	"github.com/zoeyai/zoomwatch/pkg/uia"
	"github.com/zoeyai/zoomwatch/pkg/watchdog"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// cliFlags 命令行参数，优先级高于环境变量和配置文件
type cliFlags struct {
	configPath     string
	pollChoice     int
	interval       time.Duration
	maxIterations  int
	window         string
	audioButtons   []string
	audioScope     string
	noRestoreFocus bool
	logLevel       string
	logFile        string
	save           bool
	resetConfig    bool
	version        bool
}

func main() {
	cmd, _ := newRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() (*cobra.Command, *cliFlags) {
	flags := &cliFlags{}

	cmd := &cobra.Command{
		Use:           "zoomwatch",
		Short:         "自动回答投票并关闭会议客户端的提示弹窗",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.version {
				printVersion(cmd)
				return nil
			}
			var err error
			if flags.resetConfig {
				err = resetConfig(cmd, flags)
			} else {
				err = run(cmd, flags)
			}
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "[ERROR] %v\n", err)
			}
			return err
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "配置文件路径 (默认 ~/.zoomwatch/config.json)")
	f.IntVar(&flags.pollChoice, "poll-choice", 0, "投票选项序号，从 1 开始")
	f.DurationVar(&flags.interval, "interval", 0, "两轮检查之间的间隔 (例: 10s)")
	f.IntVar(&flags.maxIterations, "max-iterations", 0, "最大迭代次数")
	f.StringVar(&flags.window, "window", "", "主窗口标题正则")
	f.StringSliceVar(&flags.audioButtons, "audio-buttons", nil, "音频弹窗可点击的按钮标签")
	f.StringVar(&flags.audioScope, "audio-scope", "", "音频弹窗按钮查找范围: global 或 popup")
	f.BoolVar(&flags.noRestoreFocus, "no-restore-focus", false, "处理弹窗后不恢复原前台窗口")
	f.StringVar(&flags.logLevel, "log-level", "", "日志级别: debug/info/warn/error")
	f.StringVar(&flags.logFile, "log-file", "", "同时写入的日志文件")
	f.BoolVar(&flags.save, "save", false, "保存最终配置到配置文件")
	f.BoolVar(&flags.resetConfig, "reset-config", false, "删除配置文件后退出")
	f.BoolVar(&flags.version, "version", false, "显示版本信息")

	return cmd, flags
}

func configManager(flags *cliFlags) *config.Manager {
	if flags.configPath != "" {
		return config.NewManagerWithFile(flags.configPath)
	}
	return config.GetDefaultManager()
}

// resetConfig 删除配置文件，之后使用默认配置
func resetConfig(cmd *cobra.Command, flags *cliFlags) error {
	manager := configManager(flags)
	out := cmd.OutOrStdout()
	if !manager.Exists() {
		fmt.Fprintf(out, "配置文件不存在: %s\n", manager.GetConfigFile())
		return nil
	}
	if err := manager.Clear(); err != nil {
		return fmt.Errorf("删除配置文件失败: %w", err)
	}
	fmt.Fprintf(out, "已删除配置文件: %s\n", manager.GetConfigFile())
	return nil
}

// loadConfig 依次合并 配置文件 → .env/环境变量 → 命令行参数
func loadConfig(cmd *cobra.Command, flags *cliFlags) (*config.WatchConfig, *config.Manager, error) {
	manager := configManager(flags)
	if !manager.Exists() {
		logger.Debug("配置文件 %s 不存在，使用默认配置", manager.GetConfigFile())
	}

	cfg, err := manager.Load()
	if err != nil {
		logger.Warn("加载配置失败，使用默认配置: %v", err)
	}

	if err := config.LoadDotEnv(); err != nil {
		logger.Warn("%v", err)
	}
	if err := config.ApplyEnv(cfg); err != nil {
		return nil, nil, err
	}

	applyFlags(cmd, cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("配置无效: %w", err)
	}
	return cfg, manager, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.WatchConfig, flags *cliFlags) {
	changed := cmd.Flags().Changed

	if changed("poll-choice") {
		cfg.PollChoice = flags.pollChoice
	}
	if changed("interval") {
		cfg.IntervalMs = int(flags.interval / time.Millisecond)
	}
	if changed("max-iterations") {
		cfg.MaxIterations = flags.maxIterations
	}
	if changed("window") {
		cfg.WindowTitlePattern = flags.window
	}
	if changed("audio-buttons") {
		cfg.AudioButtons = flags.audioButtons
	}
	if changed("audio-scope") {
		cfg.AudioScope = flags.audioScope
	}
	if changed("no-restore-focus") {
		cfg.RestoreFocus = !flags.noRestoreFocus
	}
	if changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if changed("log-file") {
		cfg.LogFile = flags.logFile
	}
}

func run(cmd *cobra.Command, flags *cliFlags) error {
	cfg, manager, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	logger.Default().SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := logger.Default().SetFile(cfg.LogFile); err != nil {
			logger.Warn("%v", err)
		}
		defer logger.Default().Close()
	}

	if flags.save {
		if err := manager.Save(cfg); err != nil {
			logger.Warn("保存配置失败: %v", err)
		} else {
			logger.Info("配置已保存到 %s", manager.GetConfigFile())
		}
	}

	printBanner(cmd, cfg)

	robot := focus.NewRobot()
	bridge, err := uia.NewBridge(&uia.Options{MaxDepth: cfg.MaxDepth, Clicker: robot})
	if err != nil {
		if errors.Is(err, uia.ErrUnsupported) {
			info := python.Detect()
			logger.Error("Python: available=%v version=%s pywinauto=%v", info.Available, info.Version, info.HasPywinauto)
		}
		return err
	}

	opts, err := watchdog.OptionsFromConfig(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w := watchdog.New(bridge, handler.Defaults(cfg), *opts, watchdog.WithFocusTracker(robot))
	res := w.Run(ctx)

	logger.Info("已处理: poll=%d recording=%d audio=%d",
		res.Handled["poll"], res.Handled["recording"], res.Handled["audio"])
	return nil
}

func printBanner(cmd *cobra.Command, cfg *config.WatchConfig) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "  zoomwatch v%s\n", Version)
	fmt.Fprintln(out, "========================================")
	fmt.Fprintf(out, "主窗口: %s\n", cfg.WindowTitlePattern)
	fmt.Fprintf(out, "投票选项: %d\n", cfg.PollChoice)
	fmt.Fprintf(out, "音频弹窗: %v (%s)\n", cfg.AudioButtons, cfg.AudioScope)
	fmt.Fprintf(out, "间隔: %v, 最多 %d 轮\n", cfg.Interval(), cfg.MaxIterations)
	fmt.Fprintln(out, "按 Ctrl+C 退出")
	fmt.Fprintln(out)
}

func printVersion(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "zoomwatch v%s\n", Version)
	fmt.Fprintf(out, "Build Time: %s\n", BuildTime)
	fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
}
