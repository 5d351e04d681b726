package interfaces

import (
	"context"

	"yatube/internal/model"
)

// 查询单条记录时，记录不存在返回 (nil, nil)

// PostRepository 定义了帖子相关的数据库操作接口，列表均按发布时间倒序
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	Update(ctx context.Context, post *model.Post) error
	FindByID(ctx context.Context, id int) (*model.Post, error)
	ListAll(ctx context.Context) ([]*model.Post, error)
	ListByGroup(ctx context.Context, groupID int) ([]*model.Post, error)
	ListByAuthor(ctx context.Context, authorID int) ([]*model.Post, error)
	// ListFollowed 返回 userID 关注的作者发布的帖子
	ListFollowed(ctx context.Context, userID int) ([]*model.Post, error)
}

type GroupRepository interface {
	Create(ctx context.Context, group *model.Group) error
	FindByID(ctx context.Context, id int) (*model.Group, error)
	FindBySlug(ctx context.Context, slug string) (*model.Group, error)
	List(ctx context.Context) ([]*model.Group, error)
}

// CommentRepository 评论按创建时间正序返回
type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	ListByPost(ctx context.Context, postID int) ([]*model.Comment, error)
}

type FollowRepository interface {
	// Create 关系已存在时不报错，返回是否新插入
	Create(ctx context.Context, userID, authorID int) (bool, error)
	// Delete 返回是否确实删除了一条关系
	Delete(ctx context.Context, userID, authorID int) (bool, error)
	Exists(ctx context.Context, userID, authorID int) (bool, error)
	CountFollowers(ctx context.Context, authorID int) (int, error)
}
