// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries bounds a MemoryCache created by NewMemoryCache.
const DefaultMaxEntries = 4096

// MemoryCache keeps judgments in process, evicting the least recently used
// entry once it holds maxEntries.
type MemoryCache struct {
	mu         sync.Mutex
	items      map[string]*list.Element
	order      *list.List // front is most recently used
	maxEntries int
}

// NewMemoryCache creates a memory cache holding up to DefaultMaxEntries.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheSize(DefaultMaxEntries)
}

// NewMemoryCacheSize creates a memory cache holding up to maxEntries.
// A non-positive size means unbounded.
func NewMemoryCacheSize(maxEntries int) *MemoryCache {
	return &MemoryCache{
		items:      make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
	}
}

// Get returns a cached judgment. Expired entries are dropped on access.
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	el, ok := m.items[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	entry := el.Value.(*Entry)
	if entry.Expired(time.Now()) {
		m.remove(el)
		return nil, ErrCacheMiss
	}
	m.order.MoveToFront(el)
	return entry.Value, nil
}

// Set stores a judgment, replacing any previous value for key.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &Entry{Key: key, Value: value, ExpiresAt: expiry(ttl)}
	if el, ok := m.items[key]; ok {
		el.Value = entry
		m.order.MoveToFront(el)
		return nil
	}

	m.items[key] = m.order.PushFront(entry)
	for m.maxEntries > 0 && m.order.Len() > m.maxEntries {
		m.remove(m.order.Back())
	}
	return nil
}

// Delete removes a judgment.
func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if el, ok := m.items[key]; ok {
		m.remove(el)
	}
	return nil
}

// Clear removes all entries.
func (m *MemoryCache) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]*list.Element)
	m.order.Init()
	return nil
}

// Len returns the number of entries held, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.order.Len()
}

// Close is a no-op for the memory cache.
func (m *MemoryCache) Close() error {
	return nil
}

func (m *MemoryCache) remove(el *list.Element) {
	m.order.Remove(el)
	delete(m.items, el.Value.(*Entry).Key)
}
