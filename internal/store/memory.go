package store

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"go-research-pipeline/internal/model"
)

// LRU is a read-through memory layer in front of a durable Cache.
// Misses are not remembered.
type LRU struct {
	next  Cache
	cache *lru.Cache[string, model.CacheEntry]
}

func NewLRU(next Cache, size int) (*LRU, error) {
	if size <= 0 {
		size = 64
	}
	c, err := lru.New[string, model.CacheEntry](size)
	if err != nil {
		return nil, err
	}
	return &LRU{next: next, cache: c}, nil
}

func (l *LRU) Lookup(ctx context.Context, topic string) (*model.CacheEntry, error) {
	if e, ok := l.cache.Get(topic); ok {
		return &e, nil
	}
	e, err := l.next.Lookup(ctx, topic)
	if err != nil || e == nil {
		return e, err
	}
	l.cache.Add(topic, *e)
	return e, nil
}

func (l *LRU) Store(ctx context.Context, entry *model.CacheEntry) error {
	if err := l.next.Store(ctx, entry); err != nil {
		l.cache.Remove(entry.Topic)
		return err
	}
	l.cache.Add(entry.Topic, *entry)
	return nil
}

func (l *LRU) List(ctx context.Context) ([]model.CacheSummary, error) { return l.next.List(ctx) }

func (l *LRU) Close() error {
	l.cache.Purge()
	return l.next.Close()
}

// Unwrap exposes the durable backend.
func (l *LRU) Unwrap() Cache { return l.next }
