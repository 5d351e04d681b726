package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yatube/config"
	"yatube/internal/cache"
	"yatube/internal/metrics"
	"yatube/internal/repository/schema"
	"yatube/internal/repository/sqlrepo"
	"yatube/internal/router"
	"yatube/internal/service"
	"yatube/internal/storage"
	"yatube/internal/util"
)

func serveCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "启动前执行数据库迁移")
	return cmd
}

func runServe(ctx context.Context, migrate bool) error {
	cfg := config.AppConfig
	util.Logger.Info("应用程序启动", zap.String("addr", cfg.HTTPAddr))

	db, err := sqlrepo.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := schema.Migrate(ctx, db); err != nil {
			return err
		}
	}

	if cfg.StorageBackend == "local" {
		ensureUploadsFolder(cfg.LocalStoragePath)
	}
	store, err := storage.New(cfg)
	if err != nil {
		return err
	}

	pages, err := cache.New(cfg)
	if err != nil {
		return err
	}
	defer closeQuietly(pages)

	// 初始化存储库和服务
	userRepo := sqlrepo.NewUserRepository(db)
	userService := service.NewUserService(userRepo, service.NewEmailService())
	postService := service.NewPostService(
		sqlrepo.NewPostRepository(db),
		sqlrepo.NewGroupRepository(db),
		sqlrepo.NewCommentRepository(db),
		userRepo,
		store,
	)
	followService := service.NewFollowService(sqlrepo.NewFollowRepository(db), userRepo)

	r, err := router.New(router.Deps{
		Config:  cfg,
		Users:   userService,
		Posts:   postService,
		Follows: followService,
		Pages:   pages,
		Storage: store,
		Metrics: metrics.NewRegistry(),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		util.Logger.Info("服务器正在启动", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 等待中断信号以优雅地关闭服务器（设置 5 秒的超时时间）
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}
	util.Logger.Info("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		util.Logger.Error("服务器强制关闭", zap.Error(err))
		return err
	}

	util.Logger.Info("服务器已优雅关闭")
	return nil
}

// 确保上传文件夹存在
func ensureUploadsFolder(uploadsPath string) {
	if err := os.MkdirAll(uploadsPath, 0755); err != nil {
		util.Logger.Fatal("创建上传文件夹失败", zap.Error(err), zap.String("path", uploadsPath))
	}
	util.Logger.Info("上传文件夹已创建或已存在", zap.String("path", uploadsPath))
}
