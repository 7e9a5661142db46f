package ports

import (
	"context"
	"io"
	"time"

	"proctorhub/internal/core/domain"
)

// ObjectStore is blob storage addressed by caller-generated keys.
type ObjectStore interface {
	// Upload stores body under key and returns the object's location.
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

// EventPublisher delivers lifecycle events to observers in publish order.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// MetricsRecorder is the subset of the prometheus collector services use.
type MetricsRecorder interface {
	RecordRoomCreated()
	RecordRoomDeleted()
	RecordAdmission(outcome string)
	RecordLogAppended()
	RecordLogDropped()
	SetLogSubscribers(n int)
	RecordObjectStoreOperation(store, operation string, err error)
}

type nopMetrics struct{}

func (nopMetrics) RecordRoomCreated() {}
func (nopMetrics) RecordRoomDeleted() {}
func (nopMetrics) RecordAdmission(string) {}
func (nopMetrics) RecordLogAppended() {}
func (nopMetrics) RecordLogDropped() {}
func (nopMetrics) SetLogSubscribers(int) {}
func (nopMetrics) RecordObjectStoreOperation(string, string, error) {}

// NopMetrics returns a MetricsRecorder that discards everything.
func NopMetrics() MetricsRecorder { return nopMetrics{} }
