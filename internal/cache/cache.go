// Package cache stores rendered list data for a short TTL. Values are kept
// as JSON so every reader decodes its own copy.
package cache

import (
	"context"
	"time"
)

// Store is implemented by the in-process LRU and by Redis.
type Store interface {
	// Get decodes the value at key into dst and reports whether it was found.
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
}

// 列表缓存键前缀，写操作后按前缀清除
const (
	PrefixSubmissions = "submissions:"
	PrefixArticles    = "articles:"
)

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string, any) (bool, error) { return false, nil }
func (Nop) Set(context.Context, string, any, time.Duration) error { return nil }
func (Nop) DeletePrefix(context.Context, string) error { return nil }
