package sqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"yatube/internal/model"
	"yatube/internal/util"
)

type postRepository struct {
	db *sqlx.DB
}

func NewPostRepository(db *sqlx.DB) *postRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *model.Post) error {
	if post.PubDate.IsZero() {
		post.PubDate = now()
	}

	query := `INSERT INTO posts (text, pub_date, author_id, group_id, image) VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		post.Text, post.PubDate, post.AuthorID, nullInt(post.GroupID), nullString(post.Image))
	if err != nil {
		util.Logger.Error("创建帖子失败", zap.Error(err))
		return fmt.Errorf("insert post: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		util.Logger.Error("获取新帖子ID失败", zap.Error(err))
		return fmt.Errorf("insert post: %w", err)
	}
	post.ID = int(id)

	util.Logger.Info("帖子创建成功", zap.Int("post_id", post.ID), zap.Int("author_id", post.AuthorID))
	return nil
}

// Update 只更新正文、分组和图片，作者和发布时间不变
func (r *postRepository) Update(ctx context.Context, post *model.Post) error {
	query := `UPDATE posts SET text = ?, group_id = ?, image = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, post.Text, nullInt(post.GroupID), nullString(post.Image), post.ID)
	if err != nil {
		util.Logger.Error("更新帖子失败", zap.Error(err), zap.Int("post_id", post.ID))
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (r *postRepository) FindByID(ctx context.Context, id int) (*model.Post, error) {
	var row postRow
	err := r.db.GetContext(ctx, &row, `SELECT`+postColumns+postFrom+` WHERE p.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return row.toModel(), nil
}

func (r *postRepository) ListAll(ctx context.Context) ([]*model.Post, error) {
	return r.list(ctx, `SELECT`+postColumns+postFrom+postOrder)
}

func (r *postRepository) ListByGroup(ctx context.Context, groupID int) ([]*model.Post, error) {
	return r.list(ctx, `SELECT`+postColumns+postFrom+` WHERE p.group_id = ?`+postOrder, groupID)
}

func (r *postRepository) ListByAuthor(ctx context.Context, authorID int) ([]*model.Post, error) {
	return r.list(ctx, `SELECT`+postColumns+postFrom+` WHERE p.author_id = ?`+postOrder, authorID)
}

func (r *postRepository) ListFollowed(ctx context.Context, userID int) ([]*model.Post, error) {
	query := `SELECT` + postColumns + postFrom +
		` WHERE p.author_id IN (SELECT f.author_id FROM follows f WHERE f.user_id = ?)` + postOrder
	return r.list(ctx, query, userID)
}

func (r *postRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Post, error) {
	var rows []postRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		util.Logger.Error("查询帖子列表失败", zap.Error(err))
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return postsFromRows(rows), nil
}
