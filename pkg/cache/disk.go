// Copyright 2026 CICD AI Toolkit. All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var entriesBucket = []byte("judgments")

// DiskCache is a bbolt-backed cache that survives process restarts.
type DiskCache struct {
	db   *bbolt.DB
	path string
}

// NewDiskCache opens (or creates) the cache file at path.
func NewDiskCache(path string) (*DiskCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(entriesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache bucket: %w", err)
	}

	return &DiskCache{db: db, path: path}, nil
}

// Path returns the cache file location.
func (d *DiskCache) Path() string {
	return d.path
}

// Get retrieves a value from disk cache. Expired entries are reported as
// misses and removed lazily.
func (d *DiskCache) Get(ctx context.Context, key string) ([]byte, error) {
	var entry Entry
	found := false

	err := d.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(entriesBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		found = true
		return json.Unmarshal(data, &entry)
	})
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}
	if !found {
		return nil, ErrCacheMiss
	}
	if entry.Expired(time.Now()) {
		_ = d.Delete(ctx, key)
		return nil, ErrCacheMiss
	}
	return entry.Value, nil
}

// Set stores a value in disk cache.
func (d *DiskCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	data, err := json.Marshal(&Entry{
		Key:       key,
		Value:     value,
		ExpiresAt: expiry(ttl),
	})
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(entriesBucket).Put([]byte(key), data)
	})
}

// Delete removes a value from disk cache.
func (d *DiskCache) Delete(ctx context.Context, key string) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(entriesBucket).Delete([]byte(key))
	})
}

// Clear removes all entries from disk cache.
func (d *DiskCache) Clear(ctx context.Context) error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(entriesBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(entriesBucket)
		return err
	})
}

// Close releases the cache file.
func (d *DiskCache) Close() error {
	return d.db.Close()
}
