// Package cmd 提供 pipeline-engine CLI 的命令实现
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/pipeline-engine/internal/config"
	"yqhp/pipeline-engine/internal/pipeline"
	"yqhp/pipeline-engine/internal/step/stepinit"
	"yqhp/pipeline-engine/pkg/logger"
)

const (
	// Version 是当前版本号
	Version = "0.1.0"
	// Banner 是版本信息中显示的 ASCII 艺术
	Banner = `
     ____  _            ___
    |  _ \(_)_ __   ___|_ _|_ __   ___  Pipeline Engine %s
    | |_) | | '_ \ / _ \| || '_ \ / _ \
    |  __/| | |_) |  __/| || | | |  __/
    |_|   |_| .__/ \___|___|_| |_|\___|
            |_|
`
)

// app 保存一次命令执行期间的全局状态
type app struct {
	cfgFile   string
	logLevel  string
	logFormat string
	cmdArgs   map[string]string

	cfg *config.Config
	log *logger.Logger
}

// NewRootCmd 构建完整的命令树，每次调用返回独立实例（便于测试）
func NewRootCmd() *cobra.Command {
	a := &app{cmdArgs: make(map[string]string)}

	rootCmd := &cobra.Command{
		Use:   "pipeline-engine",
		Short: "声明式流水线执行引擎",
		Long: `pipeline-engine 按 YAML 定义顺序执行步骤，所有步骤共享同一个上下文。
内置 py 步骤可在流水线中执行 JavaScript 片段读写上下文。`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	// 全局 flags
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "配置文件路径")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "日志级别 (debug, info, notify, warn, error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "日志格式 (console, json)")
	// 提前声明 version，命令查找阶段才能识别它不带参数
	rootCmd.Flags().BoolP("version", "v", false, "显示版本信息")

	// 禁用默认的 completion 命令
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// 自定义版本模板
	rootCmd.SetVersionTemplate(fmt.Sprintf(Banner, Version) + "\n")

	rootCmd.AddCommand(newRunCmd(a), newServeCmd(a), newStepsCmd(a), newShowCmd(a))
	return rootCmd
}

// init 加载配置并创建日志记录器
func (a *app) init() error {
	a.cmdArgs["logging.level"] = a.logLevel
	a.cmdArgs["logging.format"] = a.logFormat

	cfg, err := config.NewLoader().
		WithConfigPath(a.cfgFile).
		WithCmdArgs(a.cmdArgs).
		Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.Logging.LoggerConfig())
	if err != nil {
		return fmt.Errorf("创建日志记录器失败: %w", err)
	}

	a.cfg = cfg
	a.log = log
	a.log.Debug("configuration loaded", zap.String("config", a.cfgFile), zap.String("pipelines_dir", cfg.Pipelines.Dir))
	return nil
}

// newRunner 根据配置创建流水线执行器
func (a *app) newRunner(dir string) *pipeline.Runner {
	if dir == "" {
		dir = a.cfg.Pipelines.Dir
	}
	registry := stepinit.NewRegistry(a.log)
	return pipeline.NewRunner(registry, pipeline.NewLoader(dir), a.log).
		WithDefaultParser(a.cfg.Pipelines.DefaultParser)
}

// Execute 执行根命令
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
