// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/rs/zerolog"
)

// BadgerStore implements Store on top of BadgerDB.
type BadgerStore struct {
	db     *badger.DB
	config Config
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// Open creates the Store selected by cfg.Backend.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func Open(cfg Config, logger zerolog.Logger) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid storage config: %w", err)
	}
	if cfg.Backend == BackendMemory {
		logger.Info().Str("backend", BackendMemory).Msg("Durable storage is memory-only")
		return NewMemoryStore(), nil
	}
	return OpenBadger(cfg, logger)
}

// OpenBadger opens (or creates) a BadgerDB database at cfg.Path.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func OpenBadger(cfg Config, logger zerolog.Logger) (*BadgerStore, error) {
	if cfg.CloseTimeout == 0 {
		cfg.CloseTimeout = 10 * time.Second
	}
	if cfg.NumCompactors < 2 {
		cfg.NumCompactors = 2
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.SyncWrites = cfg.SyncWrites
	opts.NumCompactors = cfg.NumCompactors
	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		config: cfg,
		logger: logger.With().Str("component", "storage").Logger(),
	}
	s.logger.Info().
		Str("path", cfg.Path).
		Bool("sync_writes", cfg.SyncWrites).
		Bool("compression", cfg.Compression).
		Msg("Durable storage opened")
	return s, nil
}

// OpenInMemoryBadger opens a BadgerDB instance without a data directory.
func OpenInMemoryBadger() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory BadgerDB: %w", err)
	}
	return &BadgerStore{
		db:     db,
		config: Config{Backend: BackendBadger, CloseTimeout: 10 * time.Second, GCRatio: 0.5},
		logger: zerolog.Nop(),
	}, nil
}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *BadgerStore) Get(ctx context.Context, namespace, key string) (string, error) {
	k, err := compositeKey(namespace, key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	var value []byte
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s: %w", k, err)
	}
	return string(value), nil
}

func (s *BadgerStore) Set(ctx context.Context, namespace, key, value string) error {
	k, err := compositeKey(namespace, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(k, []byte(value)))
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", k, err)
	}
	return nil
}

func (s *BadgerStore) Delete(ctx context.Context, namespace, key string) error {
	k, err := compositeKey(namespace, key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", k, err)
	}
	return nil
}

// Count returns the number of keys stored under namespace.
func (s *BadgerStore) Count(namespace string) (int, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	prefix := []byte(namespace + "/")
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// RunGC reclaims value-log space until BadgerDB reports nothing to rewrite.
func (s *BadgerStore) RunGC() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.db.Opts().InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(s.config.GCRatio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run value log GC: %w", err)
		}
	}
}

// GCInterval returns the configured garbage collection interval.
func (s *BadgerStore) GCInterval() time.Duration {
	return s.config.GCInterval
}

// Close shuts BadgerDB down, giving up after CloseTimeout.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	timeout := s.config.CloseTimeout
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		s.logger.Info().Msg("Durable storage closed")
		return nil
	case <-time.After(timeout):
		s.logger.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}
