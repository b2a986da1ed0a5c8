package cmd

import (
	"github.com/spf13/cobra"

	"yqhp/pipeline-engine/internal/parser"
)

func newShowCmd(a *app) *cobra.Command {
	var dir string

	showCmd := &cobra.Command{
		Use:   "show <pipeline>",
		Short: "打印规范化后的流水线定义",
		Long: `按 run 相同的规则解析流水线，并以规范化 YAML 输出：
简写的步骤名展开为 mapping 形式，缺省的 name 取文件名。`,
		Example: `  pipeline-engine show demo
  pipeline-engine show ./defs/demo.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newRunner(dir).Loader().Load(args[0])
			if err != nil {
				return err
			}
			return parser.NewYAMLPrinter().Fprint(cmd.OutOrStdout(), p)
		},
	}

	showCmd.Flags().StringVar(&dir, "dir", "", "流水线目录 (覆盖配置)")
	return showCmd
}
