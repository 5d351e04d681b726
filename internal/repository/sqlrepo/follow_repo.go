package sqlrepo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"yatube/internal/util"
)

type followRepository struct {
	db *sqlx.DB
}

func NewFollowRepository(db *sqlx.DB) *followRepository {
	return &followRepository{db: db}
}

// Create 依赖 (user_id, author_id) 唯一约束保证不会重复
func (r *followRepository) Create(ctx context.Context, userID, authorID int) (bool, error) {
	_, err := r.db.ExecContext(ctx, `INSERT INTO follows (user_id, author_id) VALUES (?, ?)`, userID, authorID)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		util.Logger.Error("创建关注关系失败", zap.Error(err), zap.Int("user_id", userID), zap.Int("author_id", authorID))
		return false, fmt.Errorf("insert follow: %w", err)
	}
	return true, nil
}

func (r *followRepository) Delete(ctx context.Context, userID, authorID int) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM follows WHERE user_id = ? AND author_id = ?`, userID, authorID)
	if err != nil {
		util.Logger.Error("删除关注关系失败", zap.Error(err), zap.Int("user_id", userID), zap.Int("author_id", authorID))
		return false, fmt.Errorf("delete follow: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete follow: %w", err)
	}
	return affected > 0, nil
}

func (r *followRepository) Exists(ctx context.Context, userID, authorID int) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM follows WHERE user_id = ? AND author_id = ?`, userID, authorID)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return count > 0, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, authorID int) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM follows WHERE author_id = ?`, authorID); err != nil {
		return 0, fmt.Errorf("count followers: %w", err)
	}
	return count, nil
}
