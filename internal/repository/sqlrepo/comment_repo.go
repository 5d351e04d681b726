package sqlrepo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"yatube/internal/model"
	"yatube/internal/util"
)

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) *commentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *model.Comment) error {
	if comment.Created.IsZero() {
		comment.Created = now()
	}

	query := `INSERT INTO comments (post_id, author_id, text, created) VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, comment.PostID, comment.AuthorID, comment.Text, comment.Created)
	if err != nil {
		util.Logger.Error("创建评论失败", zap.Error(err), zap.Int("post_id", comment.PostID))
		return fmt.Errorf("insert comment: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	comment.ID = int(id)
	return nil
}

func (r *commentRepository) ListByPost(ctx context.Context, postID int) ([]*model.Comment, error) {
	query := `
		SELECT c.id, c.post_id, c.author_id, c.text, c.created,
		       u.username AS author_username, u.first_name AS author_first_name, u.last_name AS author_last_name
		FROM comments c
		JOIN users u ON u.id = c.author_id
		WHERE c.post_id = ?
		ORDER BY c.created ASC, c.id ASC`

	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, postID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	comments := make([]*model.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.toModel())
	}
	return comments, nil
}
