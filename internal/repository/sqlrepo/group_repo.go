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

type groupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	query := `INSERT INTO post_groups (title, slug, description) VALUES (?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query, group.Title, group.Slug, group.Description)
	if err != nil {
		util.Logger.Error("创建分组失败", zap.Error(err), zap.String("slug", group.Slug))
		return fmt.Errorf("insert group: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	group.ID = int(id)
	return nil
}

func (r *groupRepository) FindByID(ctx context.Context, id int) (*model.Group, error) {
	return r.get(ctx, `SELECT id, title, slug, description FROM post_groups WHERE id = ?`, id)
}

func (r *groupRepository) FindBySlug(ctx context.Context, slug string) (*model.Group, error) {
	return r.get(ctx, `SELECT id, title, slug, description FROM post_groups WHERE slug = ?`, slug)
}

func (r *groupRepository) List(ctx context.Context) ([]*model.Group, error) {
	var rows []groupRow
	if err := r.db.SelectContext(ctx, &rows, `SELECT id, title, slug, description FROM post_groups ORDER BY title`); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	groups := make([]*model.Group, 0, len(rows))
	for _, row := range rows {
		groups = append(groups, row.toModel())
	}
	return groups, nil
}

func (r *groupRepository) get(ctx context.Context, query string, arg interface{}) (*model.Group, error) {
	var row groupRow
	if err := r.db.GetContext(ctx, &row, query, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get group: %w", err)
	}
	return row.toModel(), nil
}
