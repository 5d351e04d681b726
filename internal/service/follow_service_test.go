package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yatube/internal/errors"
	"yatube/internal/model"
)

// memoryFollows 内存中的关注关系，用来验证幂等性
type memoryFollows struct {
	edges map[[2]int]bool
}

func (f *memoryFollows) Create(_ context.Context, userID, authorID int) (bool, error) {
	key := [2]int{userID, authorID}
	if f.edges[key] {
		return false, nil
	}
	f.edges[key] = true
	return true, nil
}

func (f *memoryFollows) Delete(_ context.Context, userID, authorID int) (bool, error) {
	key := [2]int{userID, authorID}
	existed := f.edges[key]
	delete(f.edges, key)
	return existed, nil
}

func (f *memoryFollows) Exists(_ context.Context, userID, authorID int) (bool, error) {
	return f.edges[[2]int{userID, authorID}], nil
}

func (f *memoryFollows) CountFollowers(_ context.Context, authorID int) (int, error) {
	count := 0
	for key := range f.edges {
		if key[1] == authorID {
			count++
		}
	}
	return count, nil
}

func TestFollowTwiceLeavesOneEdge(t *testing.T) {
	ctx := context.Background()
	follows := &memoryFollows{edges: map[[2]int]bool{}}
	users := new(MockUserRepository)
	svc := NewFollowService(follows, users)

	reader := &model.User{ID: 1, Username: "reader"}
	author := &model.User{ID: 2, Username: "author"}
	users.On("FindByUsername", ctx, "author").Return(author, nil)

	_, err := svc.Follow(ctx, reader, "author")
	require.NoError(t, err)
	_, err = svc.Follow(ctx, reader, "author")
	require.NoError(t, err)
	assert.Len(t, follows.edges, 1)

	following, err := svc.IsFollowing(ctx, reader, author)
	require.NoError(t, err)
	assert.True(t, following)

	_, err = svc.Unfollow(ctx, reader, "author")
	require.NoError(t, err)
	assert.Empty(t, follows.edges)

	// 再次取消关注不报错
	_, err = svc.Unfollow(ctx, reader, "author")
	require.NoError(t, err)
}

func TestFollowSelfIsNoop(t *testing.T) {
	ctx := context.Background()
	follows := new(MockFollowRepository)
	users := new(MockUserRepository)
	svc := NewFollowService(follows, users)

	me := &model.User{ID: 1, Username: "me"}
	users.On("FindByUsername", ctx, "me").Return(me, nil)

	author, err := svc.Follow(ctx, me, "me")
	require.NoError(t, err)
	assert.Equal(t, me, author)
	follows.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestFollowUnknownUser(t *testing.T) {
	ctx := context.Background()
	users := new(MockUserRepository)
	svc := NewFollowService(new(MockFollowRepository), users)

	users.On("FindByUsername", ctx, "ghost").Return(nil, nil)

	_, err := svc.Follow(ctx, &model.User{ID: 1}, "ghost")
	assert.True(t, errors.IsCode(err, errors.ErrUserNotFound))
	_, err = svc.Unfollow(ctx, &model.User{ID: 1}, "ghost")
	assert.True(t, errors.IsCode(err, errors.ErrUserNotFound))
}

func TestIsFollowingAnonymous(t *testing.T) {
	svc := NewFollowService(new(MockFollowRepository), new(MockUserRepository))
	following, err := svc.IsFollowing(context.Background(), nil, &model.User{ID: 2})
	require.NoError(t, err)
	assert.False(t, following)
}
