package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yatube/config"
	"yatube/internal/cache"
	"yatube/internal/model"
	"yatube/internal/repository/schema"
	"yatube/internal/repository/sqlrepo"
	"yatube/internal/service"
	"yatube/internal/util"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "创建数据表",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := sqlrepo.Open(ctx, config.AppConfig)
			if err != nil {
				return err
			}
			defer db.Close()
			return schema.Migrate(ctx, db)
		},
	}
}

func clearCacheCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clearcache",
		Short: "清空页面缓存",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.AppConfig
			if cfg.CacheBackend == "memory" {
				util.Logger.Warn("内存缓存只存在于服务进程中，请使用 POST /admin/cache/clear/")
				return nil
			}
			pages, err := cache.New(cfg)
			if err != nil {
				return err
			}
			defer closeQuietly(pages)

			if err := pages.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("清空页面缓存失败: %w", err)
			}
			util.Logger.Info("页面缓存已清空", zap.String("backend", cfg.CacheBackend))
			return nil
		},
	}
}

func createSuperuserCmd() *cobra.Command {
	var username, email, password string
	cmd := &cobra.Command{
		Use:   "createsuperuser",
		Short: "创建管理员账号",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("YATUBE_SUPERUSER_PASSWORD")
			}
			if username == "" || password == "" {
				return errors.New("需要 --username 和 --password（或 YATUBE_SUPERUSER_PASSWORD）")
			}

			ctx := cmd.Context()
			db, err := sqlrepo.Open(ctx, config.AppConfig)
			if err != nil {
				return err
			}
			defer db.Close()

			users := service.NewUserService(sqlrepo.NewUserRepository(db), nil)
			user, err := users.CreateSuperuser(ctx, username, email, password)
			if err != nil {
				return err
			}
			fmt.Printf("管理员 %s 已创建 (id=%d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "用户名")
	cmd.Flags().StringVar(&email, "email", "", "邮箱")
	cmd.Flags().StringVar(&password, "password", "", "密码")
	return cmd
}

func createGroupCmd() *cobra.Command {
	var group model.Group
	cmd := &cobra.Command{
		Use:   "creategroup",
		Short: "创建帖子分组",
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validator.New()
			if err := util.RegisterValidators(v); err != nil {
				return err
			}
			if err := v.Var(group.Title, "required,max=200"); err != nil {
				return fmt.Errorf("--title 无效: %w", err)
			}
			if err := v.Var(group.Slug, "required,slug"); err != nil {
				return fmt.Errorf("--slug 无效: %w", err)
			}

			ctx := cmd.Context()
			db, err := sqlrepo.Open(ctx, config.AppConfig)
			if err != nil {
				return err
			}
			defer db.Close()

			posts := service.NewPostService(
				sqlrepo.NewPostRepository(db),
				sqlrepo.NewGroupRepository(db),
				sqlrepo.NewCommentRepository(db),
				sqlrepo.NewUserRepository(db),
				nil,
			)
			if err := posts.CreateGroup(ctx, &group); err != nil {
				return err
			}
			fmt.Printf("分组 %s 已创建 (id=%d)\n", group.Slug, group.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&group.Title, "title", "", "分组标题")
	cmd.Flags().StringVar(&group.Slug, "slug", "", "分组 slug")
	cmd.Flags().StringVar(&group.Description, "description", "", "分组描述")
	return cmd
}
