// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

// Package storage provides the durable storage provider used by the cache's
// durable tier: a namespaced string get/set/delete contract with a BadgerDB
// implementation for the host process and an in-memory implementation for tests.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no value exists for the key.
	ErrNotFound = errors.New("storage: key not found")

	// ErrClosed is returned after the store has been closed.
	ErrClosed = errors.New("storage: store is closed")

	// ErrEmptyKey is returned when a namespace or key is empty.
	ErrEmptyKey = errors.New("storage: namespace and key must not be empty")
)

// Store is a namespaced string key/value store.
type Store interface {
	Get(ctx context.Context, namespace, key string) (string, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
	Close() error
}

func compositeKey(namespace, key string) ([]byte, error) {
	if namespace == "" || key == "" {
		return nil, ErrEmptyKey
	}
	return []byte(namespace + "/" + key), nil
}
