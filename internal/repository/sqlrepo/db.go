// Package sqlrepo 基于 sqlx 实现仓库接口，SQL 同时兼容 MySQL 和 SQLite。
package sqlrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"yatube/config"
	"yatube/internal/common"
	"yatube/internal/util"
)

// DSN 根据配置生成数据库连接字符串
func DSN(cfg config.Config) (string, error) {
	switch cfg.DBDriver {
	case "mysql":
		mc := mysql.NewConfig()
		mc.User = cfg.DBUser
		mc.Passwd = cfg.DBPassword
		mc.Net = "tcp"
		mc.Addr = cfg.DBHost + ":" + cfg.DBPort
		mc.DBName = cfg.DBName
		mc.ParseTime = true
		mc.Loc = time.Local
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mc.FormatDSN(), nil
	case "sqlite3":
		return "file:" + cfg.SQLitePath + "?_foreign_keys=on&_busy_timeout=5000", nil
	default:
		return "", fmt.Errorf("不支持的数据库驱动: %s", cfg.DBDriver)
	}
}

// Open 连接数据库、配置连接池并确认连接可用
func Open(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(cfg.DBDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	if cfg.DBDriver == "sqlite3" {
		// SQLite 同一时间只允许一个写连接
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	err = common.WithRetry(ctx, func() error {
		return db.PingContext(ctx)
	}, 5)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}

	util.Logger.Info("数据库连接成功", zap.String("driver", cfg.DBDriver))
	return db, nil
}

// isUniqueViolation 判断错误是否为唯一约束冲突
func isUniqueViolation(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// now 写入数据库的时间统一截断到秒并使用 UTC
var now = func() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}
