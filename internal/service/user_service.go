package service

import (
	"context"
	stderrors "errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"yatube/internal/errors"
	"yatube/internal/model"
	"yatube/internal/repository/interfaces"
	"yatube/internal/util"
)

// UserService 处理与用户相关的业务逻辑
type UserService struct {
	userRepo       interfaces.UserRepository
	emailService   EmailSender
	tokenBlacklist map[string]time.Time
	blacklistMutex sync.RWMutex
	now            func() time.Time
}

// NewUserService 创建一个新的 UserService 实例
func NewUserService(userRepo interfaces.UserRepository, emailService EmailSender) *UserService {
	return &UserService{
		userRepo:       userRepo,
		emailService:   emailService,
		tokenBlacklist: make(map[string]time.Time),
		now:            time.Now,
	}
}

// IsUsernameTaken 检查用户名是否已被使用
func (s *UserService) IsUsernameTaken(ctx context.Context, username string) (bool, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return user != nil, nil
}

// Register 注册新用户，password 为明文密码
func (s *UserService) Register(ctx context.Context, user *model.User, password string) error {
	if !util.IsPasswordStrong(password) {
		return errors.New(errors.ErrWeakPassword, "密码至少8位，并包含大小写字母、数字和符号")
	}

	taken, err := s.IsUsernameTaken(ctx, user.Username)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if taken {
		return errors.New(errors.ErrUserExists, "该用户名已被使用")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}
	user.PasswordHash = string(hashedPassword)
	if user.Role == "" {
		user.Role = model.RoleUser
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if stderrors.Is(err, interfaces.ErrDuplicateUsername) {
			return errors.New(errors.ErrUserExists, "该用户名已被使用")
		}
		return errors.Wrap(errors.ErrDatabase, "创建用户失败", err)
	}

	util.Logger.Info("用户注册成功", zap.Int("user_id", user.ID), zap.String("username", user.Username))
	return nil
}

// CreateSuperuser 创建管理员账号，不检查密码强度
func (s *UserService) CreateSuperuser(ctx context.Context, username, email, password string) (*model.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, errors.New(errors.ErrValidation, "用户名和密码不能为空")
	}
	taken, err := s.IsUsernameTaken(ctx, username)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if taken {
		return nil, errors.New(errors.ErrUserExists, "该用户名已被使用")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         model.RoleAdmin,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "创建用户失败", err)
	}
	util.Logger.Info("管理员创建成功", zap.Int("user_id", user.ID))
	return user, nil
}

// Login 校验用户名和密码，成功时返回会话令牌
func (s *UserService) Login(ctx context.Context, username, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		util.Logger.Info("用户登录失败，未找到用户", zap.String("username", username))
		return nil, "", errors.New(errors.ErrInvalidCredentials, "用户名或密码不正确")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		util.Logger.Info("用户登录失败，密码不正确", zap.Int("user_id", user.ID))
		return nil, "", errors.New(errors.ErrInvalidCredentials, "用户名或密码不正确")
	}

	token, err := util.GenerateToken(user.ID)
	if err != nil {
		return nil, "", errors.Wrap(errors.ErrInternal, "生成令牌失败", err)
	}

	util.Logger.Info("用户登录成功", zap.Int("user_id", user.ID))
	return user, token, nil
}

// GetUserByID 通过ID获取用户信息
func (s *UserService) GetUserByID(ctx context.Context, id int) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		return nil, errors.New(errors.ErrUserNotFound, "用户不存在")
	}
	return user, nil
}

func (s *UserService) IsAdmin(ctx context.Context, userID int) (bool, error) {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsAdmin(), nil
}

// ChangePassword 校验旧密码后设置新密码
func (s *UserService) ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(oldPassword)); err != nil {
		return errors.New(errors.ErrInvalidCredentials, "旧密码不正确")
	}
	return s.setPassword(ctx, user, newPassword)
}

// RequestPasswordReset 邮箱不存在时同样返回成功，避免泄露注册信息
func (s *UserService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil {
		util.Logger.Info("密码重置请求的邮箱未注册", zap.String("email", email))
		return nil
	}

	token, err := util.GeneratePasswordResetToken(user.ID, user.PasswordHash)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "生成密码重置令牌失败", err)
	}
	if err := s.emailService.SendPasswordResetEmail(ctx, user, token); err != nil {
		return errors.Wrap(errors.ErrInternal, "发送密码重置邮件失败", err)
	}
	return nil
}

// CheckResetToken 校验重置令牌，密码修改后旧令牌失效
func (s *UserService) CheckResetToken(ctx context.Context, token string) (*model.User, error) {
	userID, fp, err := util.ValidatePasswordResetToken(token)
	if err != nil {
		util.Logger.Info("验证密码重置令牌失败", zap.Error(err))
		return nil, errors.Wrap(errors.ErrInvalidToken, "重置链接无效或已过期", err)
	}

	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, "查询用户失败", err)
	}
	if user == nil || util.PasswordFingerprint(user.PasswordHash) != fp {
		return nil, errors.New(errors.ErrInvalidToken, "重置链接无效或已过期")
	}
	return user, nil
}

func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.CheckResetToken(ctx, token)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, user, newPassword); err != nil {
		return err
	}
	util.Logger.Info("密码重置成功", zap.Int("user_id", user.ID))
	return nil
}

func (s *UserService) setPassword(ctx context.Context, user *model.User, password string) error {
	if !util.IsPasswordStrong(password) {
		return errors.New(errors.ErrWeakPassword, "新密码强度不足")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(errors.ErrInternal, "生成密码哈希失败", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, user.ID, string(hashedPassword)); err != nil {
		return errors.Wrap(errors.ErrDatabase, "更新密码失败", err)
	}
	user.PasswordHash = string(hashedPassword)
	return nil
}

// Logout 把当前会话令牌加入黑名单，保留时间与令牌有效期一致
func (s *UserService) Logout(token string) {
	if token == "" {
		return
	}
	s.blacklistMutex.Lock()
	s.tokenBlacklist[token] = s.now().Add(util.SessionTTL)
	s.blacklistMutex.Unlock()
	util.Logger.Info("用户注销，令牌已加入黑名单")
}

func (s *UserService) IsTokenBlacklisted(token string) bool {
	s.blacklistMutex.RLock()
	expiry, exists := s.tokenBlacklist[token]
	s.blacklistMutex.RUnlock()
	if !exists {
		return false
	}
	if s.now().After(expiry) {
		s.blacklistMutex.Lock()
		delete(s.tokenBlacklist, token)
		s.blacklistMutex.Unlock()
		return false
	}
	return true
}

type UserServiceInterface interface {
	Register(ctx context.Context, user *model.User, password string) error
	Login(ctx context.Context, username, password string) (*model.User, string, error)
	GetUserByID(ctx context.Context, id int) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	IsAdmin(ctx context.Context, userID int) (bool, error)
	ChangePassword(ctx context.Context, userID int, oldPassword, newPassword string) error
	RequestPasswordReset(ctx context.Context, email string) error
	CheckResetToken(ctx context.Context, token string) (*model.User, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	Logout(token string)
	IsTokenBlacklisted(token string) bool
}

// 确保 UserService 实现了 UserServiceInterface
var _ UserServiceInterface = (*UserService)(nil)
