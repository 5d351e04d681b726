package cache

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStoreGet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, DefaultPrefix)
	ctx := context.Background()

	t.Run("命中", func(t *testing.T) {
		mock.ExpectGet("yatube:page:/").SetVal("<html>")
		val, ok, err := store.Get(ctx, "page:/")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, []byte("<html>"), val)
	})

	t.Run("未命中", func(t *testing.T) {
		mock.ExpectGet("yatube:page:/").RedisNil()
		val, ok, err := store.Get(ctx, "page:/")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, val)
	})

	t.Run("错误", func(t *testing.T) {
		mock.ExpectGet("yatube:page:/").SetErr(redis.TxFailedErr)
		_, ok, err := store.Get(ctx, "page:/")
		assert.Error(t, err)
		assert.False(t, ok)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreSet(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, DefaultPrefix)
	ctx := context.Background()

	mock.ExpectSet("yatube:page:/", []byte("<html>"), 300*time.Second).SetVal("OK")
	require.NoError(t, store.Set(ctx, "page:/", []byte("<html>"), 300*time.Second))

	mock.ExpectSet("yatube:page:/", []byte("<html>"), 300*time.Second).SetErr(redis.TxFailedErr)
	assert.Error(t, store.Set(ctx, "page:/", []byte("<html>"), 300*time.Second))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreClear(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, DefaultPrefix)
	ctx := context.Background()

	t.Run("删除前缀下的键", func(t *testing.T) {
		keys := []string{"yatube:page:GET:/:anon", "yatube:page:GET:/?page=2:anon"}
		mock.ExpectKeys("yatube:*").SetVal(keys)
		mock.ExpectDel(keys...).SetVal(int64(len(keys)))
		require.NoError(t, store.Clear(ctx))
	})

	t.Run("没有键", func(t *testing.T) {
		mock.ExpectKeys("yatube:*").SetVal([]string{})
		require.NoError(t, store.Clear(ctx))
	})

	t.Run("KEYS 失败", func(t *testing.T) {
		mock.ExpectKeys("yatube:*").SetErr(redis.TxFailedErr)
		assert.Error(t, store.Clear(ctx))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisStoreDelete(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisStore(db, DefaultPrefix)

	mock.ExpectDel("yatube:k").SetVal(1)
	require.NoError(t, store.Delete(context.Background(), "k"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
