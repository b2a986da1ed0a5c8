package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yqhp/pipeline-engine/api/rest"
)

func newServeCmd(a *app) *cobra.Command {
	var address string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 REST API 服务",
		Example: `  pipeline-engine serve --address :9090
  PE_SERVER_ADDRESS=:9090 pipeline-engine serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				a.cfg.Server.Address = address
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			server := rest.NewServer(a.newRunner(""), rest.ConfigFrom(a.cfg.Server), a.log)
			a.log.Notify("REST API listening", zap.String("address", a.cfg.Server.Address))
			return server.StartWithContext(ctx)
		},
	}

	serveCmd.Flags().StringVar(&address, "address", "", "监听地址 (覆盖配置)")
	return serveCmd
}
