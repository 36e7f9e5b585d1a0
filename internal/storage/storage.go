package storage

import (
	"context"
	"errors"
	"time"

	"pomoclock/internal/event"
)

// ErrStateNotFound is returned by LoadState when no record exists for the key.
var ErrStateNotFound = errors.New("state not found")

type Storage interface {
	Init(ctx context.Context) error
	SaveEvent(ctx context.Context, e event.Event) (int64, error)
	GetEvents(ctx context.Context, start, end time.Time, eventTypes ...event.EventType) ([]event.Event, error)
	// SaveState replaces the record stored under key.
	SaveState(ctx context.Context, key string, data []byte) error
	LoadState(ctx context.Context, key string) ([]byte, error)
	Close() error
}
