package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ohler55/ojg"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type runOptions struct {
	contextArg   string
	parser       string
	dir          string
	printContext bool
}

func newRunCmd(a *app) *cobra.Command {
	opts := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run <pipeline>",
		Short: "执行流水线",
		Long: `按名称或路径执行流水线。

名称在流水线目录下查找 <name>.yaml 或 <name>.yml；
以 .yaml/.yml 结尾的参数按文件路径处理。`,
		Example: `  # 执行 pipelines/demo.yaml
  pipeline-engine run demo

  # 使用 list 解析器构建初始上下文
  pipeline-engine run demo --context 'ham,eggs' --parser list

  # 指定文件并打印最终上下文
  pipeline-engine run ./defs/demo.yaml --print-context`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPipeline(cmd, args[0], opts)
		},
	}

	runCmd.Flags().StringVarP(&opts.contextArg, "context", "c", "", "传给上下文解析器的参数")
	runCmd.Flags().StringVarP(&opts.parser, "parser", "p", "", "上下文解析器 (覆盖流水线配置)")
	runCmd.Flags().StringVar(&opts.dir, "dir", "", "流水线目录 (覆盖配置)")
	runCmd.Flags().BoolVar(&opts.printContext, "print-context", false, "以 JSON 打印最终上下文")

	return runCmd
}

func (a *app) runPipeline(cmd *cobra.Command, name string, opts *runOptions) error {
	// 处理关闭信号
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	runner := a.newRunner(opts.dir)
	result, err := runner.RunNamed(ctx, name, opts.contextArg, opts.parser)

	if result != nil {
		a.log.Notify("pipeline finished",
			zap.String("pipeline", result.Pipeline),
			zap.String("run_id", result.RunID),
			zap.String("status", string(result.Status)),
			zap.Duration("duration", result.Duration),
		)
		if opts.printContext {
			fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(result.Context, &ojg.Options{Indent: 2, Sort: true}))
		}
	}

	if err != nil {
		return fmt.Errorf("执行流水线 %s 失败: %w", name, err)
	}
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
