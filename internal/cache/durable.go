// Feedcore - Personalized Feed Ranking and Adaptive Content Delivery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedcore

package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/feedcore/internal/metrics"
	"github.com/tomtom215/feedcore/internal/storage"
)

// ErrDurableUnavailable is returned while the durable tier is degraded.
var ErrDurableUnavailable = errors.New("cache: durable tier unavailable")

// sessionTimeout keeps the breaker open for the life of the process.
const sessionTimeout = 100 * 365 * 24 * time.Hour

// DurableConfig configures the durable tier.
type DurableConfig struct {
	// Namespace prefixes every record in the store.
	Namespace string

	// FailureThreshold is the number of consecutive failures that open the breaker.
	// Default: 1
	FailureThreshold uint32

	// RecoveryTimeout is how long the breaker stays open before probing the
	// store again. Zero keeps it open for the rest of the session.
	RecoveryTimeout time.Duration
}

// DefaultDurableConfig returns the session-long degradation policy.
func DefaultDurableConfig() DurableConfig {
	return DurableConfig{
		Namespace:        "cache",
		FailureThreshold: 1,
	}
}

// DurableTier persists JSON records in a storage.Store behind a circuit
// breaker. Once the store fails, calls short-circuit instead of retrying, so a
// broken disk costs one log line rather than one per operation.
type DurableTier struct {
	store     storage.Store
	namespace string
	breaker   *gobreaker.CircuitBreaker[interface{}]
	logger    zerolog.Logger
}

// NewDurableTier wraps store with the configured breaker.
//
//nolint:gocritic // zerolog.Logger is passed by value by convention
func NewDurableTier(store storage.Store, cfg DurableConfig, logger zerolog.Logger) *DurableTier {
	if cfg.Namespace == "" {
		cfg.Namespace = "cache"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 1
	}
	timeout := cfg.RecoveryTimeout
	if timeout <= 0 {
		timeout = sessionTimeout
	}

	d := &DurableTier{
		store:     store,
		namespace: cfg.Namespace,
		logger:    logger.With().Str("component", "durable-tier").Logger(),
	}

	metrics.DurableBreakerState.Set(0)
	threshold := cfg.FailureThreshold
	d.breaker = gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "durable-tier",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.DurableBreakerState.Set(stateToFloat(to))
			switch to {
			case gobreaker.StateOpen:
				d.logger.Error().
					Str("breaker", name).
					Str("from", from.String()).
					Dur("recovery_timeout", cfg.RecoveryTimeout).
					Msg("Durable storage failed, continuing memory-only")
			case gobreaker.StateClosed:
				d.logger.Info().Str("breaker", name).Msg("Durable storage recovered")
			case gobreaker.StateHalfOpen:
				d.logger.Debug().Str("breaker", name).Msg("Probing durable storage")
			}
		},
	})
	return d
}

// WithNamespace returns a view of the tier under another namespace. Views
// share the breaker, so one failure degrades every user of the store.
func (d *DurableTier) WithNamespace(namespace string) *DurableTier {
	view := *d
	view.namespace = namespace
	return &view
}

// Available reports whether the breaker is letting calls through.
func (d *DurableTier) Available() bool {
	return d.breaker.State() != gobreaker.StateOpen
}

// State returns the breaker state name.
func (d *DurableTier) State() string {
	return d.breaker.State().String()
}

// Load reads the record stored under key into dst. It returns false with a
// nil error when the key is absent.
func (d *DurableTier) Load(ctx context.Context, key string, dst interface{}) (bool, error) {
	raw, err := d.breaker.Execute(func() (interface{}, error) {
		v, err := d.store.Get(ctx, d.namespace, key)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return v, nil
	})
	if err != nil {
		return false, d.fail("load", err)
	}
	s, ok := raw.(string)
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(s), dst); err != nil {
		// A corrupt record is treated as absent; the store itself is healthy.
		return false, fmt.Errorf("decode durable record %q: %w", key, err)
	}
	return true, nil
}

// Store serializes v and writes it under key.
func (d *DurableTier) Store(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode durable record %q: %w", key, err)
	}
	_, err = d.breaker.Execute(func() (interface{}, error) {
		return nil, d.store.Set(ctx, d.namespace, key, string(data))
	})
	if err != nil {
		return d.fail("store", err)
	}
	return nil
}

// Remove deletes the record under key.
func (d *DurableTier) Remove(ctx context.Context, key string) error {
	_, err := d.breaker.Execute(func() (interface{}, error) {
		return nil, d.store.Delete(ctx, d.namespace, key)
	})
	if err != nil {
		return d.fail("remove", err)
	}
	return nil
}

func (d *DurableTier) fail(op string, err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		metrics.DurableFailures.WithLabelValues(op, "open").Inc()
		return ErrDurableUnavailable
	}
	metrics.DurableFailures.WithLabelValues(op, "error").Inc()
	return fmt.Errorf("durable %s: %w", op, err)
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
