package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"yatube/internal/errors"
	"yatube/internal/model"
	"yatube/internal/repository/interfaces"
	"yatube/internal/util"
)

const strongPassword = "Str0ng!pass"

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, new(MockEmailSender))

	repo.On("FindByUsername", ctx, "leo").Return(nil, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*model.User")).Return(nil)

	user := &model.User{Username: "leo", Email: "leo@example.com"}
	require.NoError(t, svc.Register(ctx, user, strongPassword))
	assert.Equal(t, model.RoleUser, user.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(strongPassword)))
	repo.AssertExpectations(t)
}

func TestRegisterRejects(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, new(MockEmailSender))

	err := svc.Register(ctx, &model.User{Username: "leo"}, "weak")
	assert.True(t, errors.IsCode(err, errors.ErrWeakPassword))

	repo.On("FindByUsername", ctx, "taken").Return(&model.User{ID: 1}, nil)
	err = svc.Register(ctx, &model.User{Username: "taken"}, strongPassword)
	assert.True(t, errors.IsCode(err, errors.ErrUserExists))

	// 并发注册时由唯一约束兜底
	repo.On("FindByUsername", ctx, "race").Return(nil, nil)
	repo.On("Create", ctx, mock.Anything).Return(interfaces.ErrDuplicateUsername)
	err = svc.Register(ctx, &model.User{Username: "race"}, strongPassword)
	assert.True(t, errors.IsCode(err, errors.ErrUserExists))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, new(MockEmailSender))

	user := &model.User{ID: 7, Username: "leo", PasswordHash: hashed(t, strongPassword)}
	repo.On("FindByUsername", ctx, "leo").Return(user, nil)
	repo.On("FindByUsername", ctx, "ghost").Return(nil, nil)

	got, token, err := svc.Login(ctx, "leo", strongPassword)
	require.NoError(t, err)
	assert.Equal(t, user, got)
	userID, err := util.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, 7, userID)

	_, _, err = svc.Login(ctx, "leo", "wrong")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidCredentials))

	_, _, err = svc.Login(ctx, "ghost", strongPassword)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidCredentials))
}

func TestLogoutBlacklist(t *testing.T) {
	svc := NewUserService(new(MockUserRepository), new(MockEmailSender))
	now := time.Now()
	svc.now = func() time.Time { return now }

	assert.False(t, svc.IsTokenBlacklisted("token"))
	svc.Logout("token")
	assert.True(t, svc.IsTokenBlacklisted("token"))

	now = now.Add(util.SessionTTL + time.Second)
	assert.False(t, svc.IsTokenBlacklisted("token"))
}

func TestChangePassword(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, new(MockEmailSender))

	user := &model.User{ID: 7, PasswordHash: hashed(t, "Old!pass1")}
	repo.On("FindByID", ctx, 7).Return(user, nil)
	repo.On("UpdatePassword", ctx, 7, mock.AnythingOfType("string")).Return(nil)

	err := svc.ChangePassword(ctx, 7, "wrong", strongPassword)
	assert.True(t, errors.IsCode(err, errors.ErrInvalidCredentials))

	err = svc.ChangePassword(ctx, 7, "Old!pass1", "weak")
	assert.True(t, errors.IsCode(err, errors.ErrWeakPassword))

	require.NoError(t, svc.ChangePassword(ctx, 7, "Old!pass1", strongPassword))
	repo.AssertNumberOfCalls(t, "UpdatePassword", 1)
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	email := new(MockEmailSender)
	svc := NewUserService(repo, email)

	user := &model.User{ID: 7, Username: "leo", Email: "leo@example.com", PasswordHash: hashed(t, "Old!pass1")}
	repo.On("FindByEmail", ctx, "leo@example.com").Return(user, nil)
	repo.On("FindByEmail", ctx, "nobody@example.com").Return(nil, nil)
	repo.On("FindByID", ctx, 7).Return(user, nil)
	repo.On("UpdatePassword", ctx, 7, mock.AnythingOfType("string")).Return(nil)

	var token string
	email.On("SendPasswordResetEmail", ctx, user, mock.AnythingOfType("string")).
		Run(func(args mock.Arguments) { token = args.String(2) }).
		Return(nil)

	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))
	require.NoError(t, svc.RequestPasswordReset(ctx, "leo@example.com"))
	email.AssertNumberOfCalls(t, "SendPasswordResetEmail", 1)
	require.NotEmpty(t, token)

	checked, err := svc.CheckResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, 7, checked.ID)

	require.NoError(t, svc.ResetPassword(ctx, token, strongPassword))

	// 密码已经改变，同一个链接不能再次使用
	err = svc.ResetPassword(ctx, token, "An0ther!pass")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidToken))

	_, err = svc.CheckResetToken(ctx, "garbage")
	assert.True(t, errors.IsCode(err, errors.ErrInvalidToken))
}

func TestCreateSuperuser(t *testing.T) {
	ctx := context.Background()
	repo := new(MockUserRepository)
	svc := NewUserService(repo, new(MockEmailSender))

	repo.On("FindByUsername", ctx, "admin").Return(nil, nil)
	repo.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
		return u.Username == "admin" && u.Role == model.RoleAdmin
	})).Return(nil)

	user, err := svc.CreateSuperuser(ctx, "admin", "admin@example.com", "admin")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin())

	_, err = svc.CreateSuperuser(ctx, "", "", "")
	assert.True(t, errors.IsCode(err, errors.ErrValidation))
}
