package sqlrepo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yatube/internal/model"
	"yatube/internal/repository/interfaces"
	"yatube/internal/repository/schema"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, schema.Migrate(context.Background(), db))
	return db
}

func createUser(t *testing.T, repo *userRepository, username string) *model.User {
	t.Helper()
	user := &model.User{Username: username, Email: username + "@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func TestUserRepositorySQLite(t *testing.T) {
	db := openSQLite(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	user := createUser(t, repo, "leo")
	assert.NotZero(t, user.ID)
	assert.Equal(t, model.RoleUser, user.Role)

	found, err := repo.FindByUsername(ctx, "leo")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	byEmail, err := repo.FindByEmail(ctx, "leo@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	missing, err := repo.FindByUsername(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Create(ctx, &model.User{Username: "leo", PasswordHash: "x"})
	assert.ErrorIs(t, err, interfaces.ErrDuplicateUsername)

	require.NoError(t, repo.UpdatePassword(ctx, user.ID, "new-hash"))
	updated, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.PasswordHash)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestPostRepositorySQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	groups := NewGroupRepository(db)
	posts := NewPostRepository(db)

	author := createUser(t, users, "author")
	group := &model.Group{Title: "Тестовая группа", Slug: "test-slug", Description: "Тестовое описание"}
	require.NoError(t, groups.Create(ctx, group))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		post := &model.Post{
			Text:     fmt.Sprintf("Тестовый пост %d", i),
			AuthorID: author.ID,
			PubDate:  base.Add(time.Duration(i) * time.Minute),
		}
		if i%2 == 0 {
			post.GroupID = &group.ID
		}
		require.NoError(t, posts.Create(ctx, post))
	}

	all, err := posts.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 13)
	assert.Equal(t, "Тестовый пост 12", all[0].Text, "最新的帖子排在最前")
	assert.Equal(t, "author", all[0].Author.Username)
	require.NotNil(t, all[0].Group)
	assert.Equal(t, "test-slug", all[0].Group.Slug)
	assert.Nil(t, all[1].Group)

	inGroup, err := posts.ListByGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, inGroup, 7)

	byAuthor, err := posts.ListByAuthor(ctx, author.ID)
	require.NoError(t, err)
	assert.Len(t, byAuthor, 13)

	post := all[0]
	post.Text = "Изменённый текст"
	post.GroupID = nil
	post.Image = "posts/small.gif"
	require.NoError(t, posts.Update(ctx, post))

	reloaded, err := posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, "Изменённый текст", reloaded.Text)
	assert.Nil(t, reloaded.GroupID)
	assert.Equal(t, "posts/small.gif", reloaded.Image)
	assert.True(t, reloaded.PubDate.Equal(post.PubDate))

	missing, err := posts.FindByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	bySlug, err := groups.FindBySlug(ctx, "test-slug")
	require.NoError(t, err)
	assert.Equal(t, group.ID, bySlug.ID)
	noGroup, err := groups.FindBySlug(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, noGroup)

	list, err := groups.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestFollowRepositorySQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	follows := NewFollowRepository(db)

	reader := createUser(t, users, "reader")
	author := createUser(t, users, "writer")
	require.NoError(t, posts.Create(ctx, &model.Post{Text: "Пост автора", AuthorID: author.ID}))

	before, err := posts.ListFollowed(ctx, reader.ID)
	require.NoError(t, err)
	assert.Empty(t, before)

	created, err := follows.Create(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = follows.Create(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, created, "重复关注不会新增记录")

	count, err := follows.CountFollowers(ctx, author.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	feed, err := posts.ListFollowed(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "Пост автора", feed[0].Text)

	exists, err := follows.Exists(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	deleted, err := follows.Delete(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = follows.Delete(ctx, reader.ID, author.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	after, err := posts.ListFollowed(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCommentRepositorySQLite(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	users := NewUserRepository(db)
	posts := NewPostRepository(db)
	comments := NewCommentRepository(db)

	author := createUser(t, users, "author")
	post := &model.Post{Text: "Пост", AuthorID: author.ID}
	require.NoError(t, posts.Create(ctx, post))

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, comments.Create(ctx, &model.Comment{PostID: post.ID, AuthorID: author.ID, Text: "первый", Created: base}))
	require.NoError(t, comments.Create(ctx, &model.Comment{PostID: post.ID, AuthorID: author.ID, Text: "второй", Created: base.Add(time.Minute)}))

	list, err := comments.ListByPost(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "первый", list[0].Text)
	assert.Equal(t, "второй", list[1].Text)
	assert.Equal(t, "author", list[0].Author.Username)
}
