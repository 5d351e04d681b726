package service

import (
	"context"

	"go.uber.org/zap"

	"yatube/internal/errors"
	"yatube/internal/model"
	"yatube/internal/repository/interfaces"
	"yatube/internal/util"
)

// FollowService 处理用户之间的关注关系，关注和取消关注都是幂等的
type FollowService struct {
	follows interfaces.FollowRepository
	users   interfaces.UserRepository
}

func NewFollowService(follows interfaces.FollowRepository, users interfaces.UserRepository) *FollowService {
	return &FollowService{follows: follows, users: users}
}

func (s *FollowService) findAuthor(ctx context.Context, username string) (*model.User, error) {
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if author == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return author, nil
}

// Follow 关注自己或重复关注时不做任何修改
func (s *FollowService) Follow(ctx context.Context, user *model.User, username string) (*model.User, error) {
	author, err := s.findAuthor(ctx, username)
	if err != nil {
		return nil, err
	}
	if author.ID == user.ID {
		return author, nil
	}

	exists, err := s.follows.Exists(ctx, user.ID, author.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询关注关系失败", err)
	}
	if exists {
		return author, nil
	}

	created, err := s.follows.Create(ctx, user.ID, author.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "关注失败", err)
	}
	if created {
		util.Logger.Info("关注成功", zap.Int("user_id", user.ID), zap.Int("author_id", author.ID))
	}
	return author, nil
}

// Unfollow 关系不存在时不做任何修改
func (s *FollowService) Unfollow(ctx context.Context, user *model.User, username string) (*model.User, error) {
	author, err := s.findAuthor(ctx, username)
	if err != nil {
		return nil, err
	}

	exists, err := s.follows.Exists(ctx, user.ID, author.ID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询关注关系失败", err)
	}
	if !exists {
		return author, nil
	}

	if _, err := s.follows.Delete(ctx, user.ID, author.ID); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "取消关注失败", err)
	}
	util.Logger.Info("取消关注成功", zap.Int("user_id", user.ID), zap.Int("author_id", author.ID))
	return author, nil
}

// IsFollowing 匿名用户（user 为 nil）总是返回 false
func (s *FollowService) IsFollowing(ctx context.Context, user *model.User, author *model.User) (bool, error) {
	if user == nil || author == nil {
		return false, nil
	}
	following, err := s.follows.Exists(ctx, user.ID, author.ID)
	if err != nil {
		return false, errors.Wrap(errors.ErrDatabase, "查询关注关系失败", err)
	}
	return following, nil
}

func (s *FollowService) FollowerCount(ctx context.Context, authorID int) (int, error) {
	count, err := s.follows.CountFollowers(ctx, authorID)
	if err != nil {
		return 0, errors.Wrap(errors.ErrDatabase, "统计粉丝失败", err)
	}
	return count, nil
}

type FollowServiceInterface interface {
	Follow(ctx context.Context, user *model.User, username string) (*model.User, error)
	Unfollow(ctx context.Context, user *model.User, username string) (*model.User, error)
	IsFollowing(ctx context.Context, user *model.User, author *model.User) (bool, error)
	FollowerCount(ctx context.Context, authorID int) (int, error)
}

var _ FollowServiceInterface = (*FollowService)(nil)
