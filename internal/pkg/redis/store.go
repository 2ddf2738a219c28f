package redis

import (
	"context"
	"time"
)

// Store 业务层用到的 Redis 能力，便于替换
type Store interface {
	TryLock(ctx context.Context, key, value string, expiration time.Duration, retryTimes int) (bool, error)
	UnLock(ctx context.Context, key, value string)
	GetValue(ctx context.Context, key string) (string, error)
	SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DeleteKey(ctx context.Context, key string) error
	Incr(ctx context.Context, key string) (int64, error)
	SAdd(ctx context.Context, key string, members ...string) error
	GetSet(ctx context.Context, key string) ([]string, error)
	Rename(ctx context.Context, oldKey, newKey string) error
	Publish(ctx context.Context, channel string, message interface{}) error
}

type defaultStore struct{}

// NewStore 基于全局 Rdb 的实现
func NewStore() Store {
	return defaultStore{}
}

func (defaultStore) TryLock(ctx context.Context, key, value string, expiration time.Duration, retryTimes int) (bool, error) {
	return TryLock(ctx, key, value, expiration, retryTimes)
}

func (defaultStore) UnLock(ctx context.Context, key, value string) {
	UnLock(ctx, key, value)
}

func (defaultStore) GetValue(ctx context.Context, key string) (string, error) {
	return GetValue(ctx, key)
}

func (defaultStore) SetWithExpiration(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return SetWithExpiration(ctx, key, value, expiration)
}

func (defaultStore) DeleteKey(ctx context.Context, key string) error {
	return DeleteKey(ctx, key)
}

func (defaultStore) Incr(ctx context.Context, key string) (int64, error) {
	return Incr(ctx, key)
}

func (defaultStore) SAdd(ctx context.Context, key string, members ...string) error {
	return SAdd(ctx, key, members...)
}

func (defaultStore) GetSet(ctx context.Context, key string) ([]string, error) {
	return GetSet(ctx, key)
}

func (defaultStore) Rename(ctx context.Context, oldKey, newKey string) error {
	return Rename(ctx, oldKey, newKey)
}

func (defaultStore) Publish(ctx context.Context, channel string, message interface{}) error {
	return Publish(ctx, channel, message)
}
