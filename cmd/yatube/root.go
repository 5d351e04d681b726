package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yatube/config"
	"yatube/internal/util"
)

func Execute(ctx context.Context) error {
	root := &cobra.Command{
		Use:           "yatube",
		Short:         "Yatube 博客平台",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// 初始化配置和日志
			config.Init()
			util.InitLogger(config.AppConfig.LogLevel)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = util.Logger.Sync()
		},
	}

	root.AddCommand(
		serveCmd(),
		migrateCmd(),
		clearCacheCmd(),
		createSuperuserCmd(),
		createGroupCmd(),
	)
	return root.ExecuteContext(ctx)
}

// closeQuietly 关闭实现了 io.Closer 的资源（例如 Redis 缓存）
func closeQuietly(v interface{}) {
	if c, ok := v.(io.Closer); ok {
		if err := c.Close(); err != nil {
			util.Logger.Warn("关闭资源失败", zap.Error(err))
		}
	}
}
