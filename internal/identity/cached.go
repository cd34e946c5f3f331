package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/EugeneC/chklstly/internal/lib/sl"
)

// Cache описывает методы кеширования, необходимые декоратору.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Cached декоратор над Provider, кеширующий разрешение учётных данных
// на короткий срок. Ключ кеша — хеш учётных данных, сами токены в Redis
// не попадают. Запись атрибутов инвалидирует кешированную сессию,
// чтобы следующий запрос увидел свежую запись о доступе.
type Cached struct {
	inner Provider
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// NewCached создает кеширующий декоратор над провайдером.
func NewCached(inner Provider, cache Cache, ttl time.Duration, log *slog.Logger) *Cached {
	return &Cached{
		inner: inner,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// Resolve возвращает сессию из кеша либо делегирует провайдеру.
// Ошибки кеша не фатальны: при недоступном Redis запрос идёт напрямую.
func (c *Cached) Resolve(ctx context.Context, credential string) (*Session, error) {
	key := sessionKey(credential)

	var cached Session
	found, err := c.cache.Get(ctx, key, &cached)
	if err != nil {
		c.log.Warn("failed to read session cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	sess, err := c.inner.Resolve(ctx, credential)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, sess, c.ttl); err != nil {
		c.log.Warn("failed to cache session", slog.String("key", key), sl.Err(err))
	}
	if err := c.cache.Set(ctx, uidKey(sess.User.UID), key, c.ttl); err != nil {
		c.log.Warn("failed to cache session index", slog.String("uid", sess.User.UID), sl.Err(err))
	}
	return sess, nil
}

// UpdateMetadata делегирует запись провайдеру и сбрасывает кешированную
// сессию пользователя.
func (c *Cached) UpdateMetadata(ctx context.Context, userUID string, metadata map[string]any) error {
	if err := c.inner.UpdateMetadata(ctx, userUID, metadata); err != nil {
		return err
	}

	var key string
	found, err := c.cache.Get(ctx, uidKey(userUID), &key)
	if err != nil {
		c.log.Warn("failed to read session index", slog.String("uid", userUID), sl.Err(err))
	}
	if found {
		if err := c.cache.Invalidate(ctx, key); err != nil {
			c.log.Warn("failed to invalidate session cache", slog.String("key", key), sl.Err(err))
		}
		if err := c.cache.Invalidate(ctx, uidKey(userUID)); err != nil {
			c.log.Warn("failed to invalidate session index", slog.String("uid", userUID), sl.Err(err))
		}
	}
	return nil
}

func sessionKey(credential string) string {
	sum := sha256.Sum256([]byte(credential))
	return "identity:session:" + hex.EncodeToString(sum[:])
}

func uidKey(userUID string) string {
	return "identity:session-index:" + userUID
}
