package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// item 包装缓存数据和过期时间
type item struct {
	data      []byte
	expiresAt time.Time
}

// LRU 本地缓存封装
type LRU struct {
	cache *lru.Cache[string, item]
	now   func() time.Time
}

// NewLRU 创建容量为 size 的 LRU 缓存
func NewLRU(size int) (*LRU, error) {
	l, err := lru.New[string, item](size)
	if err != nil {
		return nil, err
	}
	return &LRU{cache: l, now: time.Now}, nil
}

func (c *LRU) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.cache.Add(key, item{data: data, expiresAt: c.now().Add(ttl)})
	return nil
}

// Get 若不存在或已过期则返回 false
func (c *LRU) Get(_ context.Context, key string, dst any) (bool, error) {
	val, ok := c.cache.Get(key)
	if !ok {
		return false, nil
	}
	if c.now().After(val.expiresAt) {
		c.cache.Remove(key)
		return false, nil
	}
	if err := json.Unmarshal(val.data, dst); err != nil {
		c.cache.Remove(key)
		return false, err
	}
	return true, nil
}

func (c *LRU) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range c.cache.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.cache.Remove(key)
		}
	}
	return nil
}

func (c *LRU) Len() int {
	return c.cache.Len()
}
