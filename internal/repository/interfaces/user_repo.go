package interfaces

import (
	"context"
	"errors"

	"yatube/internal/model"
)

// ErrDuplicateUsername 用户名已被占用
var ErrDuplicateUsername = errors.New("username already exists")

// UserRepository 接口定义了用户仓库应该实现的方法
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id int) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	UpdatePassword(ctx context.Context, id int, passwordHash string) error
	Count(ctx context.Context) (int, error)
}
