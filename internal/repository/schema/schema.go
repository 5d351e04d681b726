// Package schema 保存各数据库驱动的建表语句。
package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"yatube/internal/util"
)

var mysqlStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(254) NOT NULL DEFAULT '',
		first_name VARCHAR(150) NOT NULL DEFAULT '',
		last_name VARCHAR(150) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		created_at DATETIME NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS post_groups (
		id INT AUTO_INCREMENT PRIMARY KEY,
		title VARCHAR(200) NOT NULL,
		slug VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NOT NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS posts (
		id INT AUTO_INCREMENT PRIMARY KEY,
		text TEXT NOT NULL,
		pub_date DATETIME NOT NULL,
		author_id INT NOT NULL,
		group_id INT NULL,
		image VARCHAR(255) NULL,
		INDEX idx_posts_pub_date (pub_date),
		CONSTRAINT fk_posts_author FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_posts_group FOREIGN KEY (group_id) REFERENCES post_groups (id) ON DELETE SET NULL
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INT AUTO_INCREMENT PRIMARY KEY,
		post_id INT NOT NULL,
		author_id INT NOT NULL,
		text TEXT NOT NULL,
		created DATETIME NOT NULL,
		CONSTRAINT fk_comments_post FOREIGN KEY (post_id) REFERENCES posts (id) ON DELETE CASCADE,
		CONSTRAINT fk_comments_author FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS follows (
		id INT AUTO_INCREMENT PRIMARY KEY,
		user_id INT NOT NULL,
		author_id INT NOT NULL,
		UNIQUE KEY uniq_follow (user_id, author_id),
		CONSTRAINT fk_follows_user FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
		CONSTRAINT fk_follows_author FOREIGN KEY (author_id) REFERENCES users (id) ON DELETE CASCADE
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

var sqliteStatements = []string{
	`PRAGMA foreign_keys = ON`,
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(254) NOT NULL DEFAULT '',
		first_name VARCHAR(150) NOT NULL DEFAULT '',
		last_name VARCHAR(150) NOT NULL DEFAULT '',
		password_hash VARCHAR(255) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'user',
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS post_groups (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title VARCHAR(200) NOT NULL,
		slug VARCHAR(100) NOT NULL UNIQUE,
		description TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		text TEXT NOT NULL,
		pub_date DATETIME NOT NULL,
		author_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		group_id INTEGER NULL REFERENCES post_groups (id) ON DELETE SET NULL,
		image VARCHAR(255) NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_pub_date ON posts (pub_date)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		post_id INTEGER NOT NULL REFERENCES posts (id) ON DELETE CASCADE,
		author_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		created DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS follows (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		author_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		UNIQUE (user_id, author_id)
	)`,
}

// Statements 返回指定驱动的建表语句
func Statements(driver string) ([]string, error) {
	switch driver {
	case "mysql":
		return mysqlStatements, nil
	case "sqlite3":
		return sqliteStatements, nil
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}
}

// Migrate 依次执行建表语句，重复执行是安全的
func Migrate(ctx context.Context, db *sqlx.DB) error {
	statements, err := Statements(db.DriverName())
	if err != nil {
		return err
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			util.Logger.Error("执行建表语句失败", zap.Int("index", i), zap.Error(err))
			return fmt.Errorf("migrate statement %d: %w", i, err)
		}
	}

	util.Logger.Info("数据库结构已更新", zap.String("driver", db.DriverName()), zap.Int("statements", len(statements)))
	return nil
}
