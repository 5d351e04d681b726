package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"

	"yatube/internal/errors"
	"yatube/internal/model"
	"yatube/internal/repository/interfaces"
	"yatube/internal/storage"
	"yatube/internal/util"
)

// EditAccess 编辑权限检查结果
type EditAccess int

const (
	EditForbidden EditAccess = iota
	EditAuthorized
)

// AuthorizeEdit 只有帖子作者可以编辑
func AuthorizeEdit(post *model.Post, user *model.User) EditAccess {
	if post != nil && post.IsAuthoredBy(user) {
		return EditAuthorized
	}
	return EditForbidden
}

// PostInput 创建和编辑帖子时提交的数据，GroupID 为空表示不属于任何分组
type PostInput struct {
	Text    string
	GroupID *int
	Image   *multipart.FileHeader
}

// PostService 处理帖子、分组和评论
type PostService struct {
	posts    interfaces.PostRepository
	groups   interfaces.GroupRepository
	comments interfaces.CommentRepository
	users    interfaces.UserRepository
	storage  storage.Storage
}

func NewPostService(
	posts interfaces.PostRepository,
	groups interfaces.GroupRepository,
	comments interfaces.CommentRepository,
	users interfaces.UserRepository,
	store storage.Storage,
) *PostService {
	return &PostService{
		posts:    posts,
		groups:   groups,
		comments: comments,
		users:    users,
		storage:  store,
	}
}

func (s *PostService) ListPosts(ctx context.Context) ([]*model.Post, error) {
	posts, err := s.posts.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "获取帖子列表失败", err)
	}
	return posts, nil
}

// GroupPosts 返回分组及其帖子，分组不存在时返回 ErrGroupNotFound
func (s *PostService) GroupPosts(ctx context.Context, slug string) (*model.Group, []*model.Post, error) {
	group, err := s.groups.FindBySlug(ctx, slug)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, "查询分组失败", err)
	}
	if group == nil {
		return nil, nil, errors.New(errors.ErrGroupNotFound, "分组不存在")
	}

	posts, err := s.posts.ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, "获取分组帖子失败", err)
	}
	return group, posts, nil
}

// ProfilePosts 返回作者及其帖子
func (s *PostService) ProfilePosts(ctx context.Context, username string) (*model.User, []*model.Post, error) {
	author, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if author == nil {
		return nil, nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}

	posts, err := s.posts.ListByAuthor(ctx, author.ID)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrDatabase, "获取用户帖子失败", err)
	}
	return author, posts, nil
}

// FeedPosts 返回 userID 关注的作者的帖子
func (s *PostService) FeedPosts(ctx context.Context, userID int) ([]*model.Post, error) {
	posts, err := s.posts.ListFollowed(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "获取关注动态失败", err)
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id int) (*model.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询帖子失败", err)
	}
	if post == nil {
		return nil, errors.New(errors.ErrPostNotFound, "帖子不存在")
	}
	return post, nil
}

func (s *PostService) Comments(ctx context.Context, postID int) ([]*model.Comment, error) {
	comments, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "获取评论失败", err)
	}
	return comments, nil
}

func (s *PostService) ListGroups(ctx context.Context) ([]*model.Group, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "获取分组列表失败", err)
	}
	return groups, nil
}

// CreateGroup 供管理命令使用
func (s *PostService) CreateGroup(ctx context.Context, group *model.Group) error {
	existing, err := s.groups.FindBySlug(ctx, group.Slug)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "查询分组失败", err)
	}
	if existing != nil {
		return errors.New(errors.ErrResourceExists, "slug 已被使用")
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return errors.Wrap(errors.ErrDatabase, "创建分组失败", err)
	}
	util.Logger.Info("分组创建成功", zap.Int("group_id", group.ID), zap.String("slug", group.Slug))
	return nil
}

// CreatePost 作者为当前用户，图片保存到 posts/ 目录
func (s *PostService) CreatePost(ctx context.Context, author *model.User, input PostInput) (*model.Post, error) {
	if author == nil {
		return nil, errors.New(errors.ErrUnauthorized, "需要登录")
	}
	if err := s.validateInput(ctx, input); err != nil {
		return nil, err
	}

	post := &model.Post{
		Text:     input.Text,
		AuthorID: author.ID,
		Author:   author,
		GroupID:  input.GroupID,
	}
	if input.Image != nil {
		key, err := s.uploadImage(ctx, input.Image)
		if err != nil {
			return nil, err
		}
		post.Image = key
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "创建帖子失败", err)
	}
	return post, nil
}

// UpdatePost 非作者调用时返回 ErrForbidden 且不修改任何数据；未上传新图片时保留原图
func (s *PostService) UpdatePost(ctx context.Context, post *model.Post, user *model.User, input PostInput) error {
	if AuthorizeEdit(post, user) != EditAuthorized {
		util.Logger.Warn("拒绝编辑他人的帖子", zap.Int("post_id", post.ID))
		return errors.New(errors.ErrForbidden, "只有作者可以编辑帖子")
	}
	if err := s.validateInput(ctx, input); err != nil {
		return err
	}

	updated := *post
	updated.Text = input.Text
	updated.GroupID = input.GroupID
	if input.Image != nil {
		key, err := s.uploadImage(ctx, input.Image)
		if err != nil {
			return err
		}
		updated.Image = key
	}

	if err := s.posts.Update(ctx, &updated); err != nil {
		return errors.Wrap(errors.ErrDatabase, "更新帖子失败", err)
	}
	*post = updated
	util.Logger.Info("帖子已更新", zap.Int("post_id", post.ID))
	return nil
}

// AddComment 帖子不存在返回 ErrPostNotFound，正文为空返回 ErrValidation
func (s *PostService) AddComment(ctx context.Context, postID int, author *model.User, text string) (*model.Comment, error) {
	if author == nil {
		return nil, errors.New(errors.ErrUnauthorized, "需要登录")
	}
	if _, err := s.GetPost(ctx, postID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, errors.New(errors.ErrValidation, "评论内容不能为空")
	}

	comment := &model.Comment{
		PostID:   postID,
		AuthorID: author.ID,
		Author:   author,
		Text:     text,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "创建评论失败", err)
	}
	return comment, nil
}

func (s *PostService) validateInput(ctx context.Context, input PostInput) error {
	if strings.TrimSpace(input.Text) == "" {
		return errors.New(errors.ErrValidation, "帖子内容不能为空")
	}
	if input.GroupID != nil {
		group, err := s.groups.FindByID(ctx, *input.GroupID)
		if err != nil {
			return errors.Wrap(errors.ErrDatabase, "查询分组失败", err)
		}
		if group == nil {
			return errors.New(errors.ErrGroupNotFound, "分组不存在")
		}
	}
	if input.Image != nil {
		if _, err := storage.DetectImage(input.Image); err != nil {
			return errors.Wrap(errors.ErrInvalidImage, "请上传有效的图片", err)
		}
	}
	return nil
}

func (s *PostService) uploadImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	key, err := s.storage.UploadFile(ctx, file, storage.ImageKey(file.Filename))
	if err != nil {
		util.Logger.Error("上传帖子图片失败", zap.Error(err), zap.String("filename", file.Filename))
		return "", errors.Wrap(errors.ErrStorage, "保存图片失败", fmt.Errorf("upload %s: %w", file.Filename, err))
	}
	return key, nil
}

type PostServiceInterface interface {
	ListPosts(ctx context.Context) ([]*model.Post, error)
	GroupPosts(ctx context.Context, slug string) (*model.Group, []*model.Post, error)
	ProfilePosts(ctx context.Context, username string) (*model.User, []*model.Post, error)
	FeedPosts(ctx context.Context, userID int) ([]*model.Post, error)
	GetPost(ctx context.Context, id int) (*model.Post, error)
	Comments(ctx context.Context, postID int) ([]*model.Comment, error)
	ListGroups(ctx context.Context) ([]*model.Group, error)
	CreatePost(ctx context.Context, author *model.User, input PostInput) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post, user *model.User, input PostInput) error
	AddComment(ctx context.Context, postID int, author *model.User, text string) (*model.Comment, error)
}

var _ PostServiceInterface = (*PostService)(nil)
