package reliability

import (
	"context"
	"io"
	"time"

	"proctorhub/internal/core/ports"
	"proctorhub/pkg/circuitbreaker"
	"proctorhub/pkg/retry"
	"proctorhub/pkg/tracing"

	"go.uber.org/zap"
)

// ObjectStoreWrapper guards an ObjectStore with a circuit breaker. Signing and
// deletes are retried, uploads are not since the body is consumed.
type ObjectStoreWrapper struct {
	store   ports.ObjectStore
	name    string
	metrics ports.MetricsRecorder
	logger  *zap.SugaredLogger

	retryConfig    retry.Config
	circuitBreaker *circuitbreaker.CircuitBreaker
}

// NewObjectStoreWrapper wraps store. name labels metrics and log lines ("photos", "papers").
func NewObjectStoreWrapper(
	store ports.ObjectStore,
	name string,
	retryConfig retry.Config,
	cbConfig circuitbreaker.Config,
	metrics ports.MetricsRecorder,
	logger *zap.SugaredLogger,
) *ObjectStoreWrapper {
	if metrics == nil {
		metrics = ports.NopMetrics()
	}
	retryConfig.Permanent = append(retryConfig.Permanent, circuitbreaker.ErrOpen, context.Canceled)

	w := &ObjectStoreWrapper{
		store:          store,
		name:           name,
		metrics:        metrics,
		logger:         logger,
		retryConfig:    retryConfig,
		circuitBreaker: circuitbreaker.New("objectstore."+name, cbConfig),
	}

	w.circuitBreaker.OnStateChange(func(breaker string, from, to circuitbreaker.State) {
		logger.Warnw("circuit breaker state changed",
			"breaker", breaker,
			"from", from.String(),
			"to", to.String(),
		)
	})

	return w
}

func (w *ObjectStoreWrapper) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	ctx, span := tracing.TraceObjectStore(ctx, "upload", key)
	location, err := circuitbreaker.Execute(ctx, w.circuitBreaker, func(ctx context.Context) (string, error) {
		return w.store.Upload(ctx, key, body, size, contentType)
	})
	w.observe("upload", key, err)
	tracing.End(span, err)
	return location, err
}

func (w *ObjectStoreWrapper) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	ctx, span := tracing.TraceObjectStore(ctx, "sign", key)
	url, err := retry.DoWithResult(ctx, w.retryConfig, func(ctx context.Context) (string, error) {
		return circuitbreaker.Execute(ctx, w.circuitBreaker, func(ctx context.Context) (string, error) {
			return w.store.SignedURL(ctx, key, ttl)
		})
	})
	w.observe("sign", key, err)
	tracing.End(span, err)
	return url, err
}

func (w *ObjectStoreWrapper) Delete(ctx context.Context, key string) error {
	ctx, span := tracing.TraceObjectStore(ctx, "delete", key)
	err := retry.Do(ctx, w.retryConfig, func(ctx context.Context) error {
		return w.circuitBreaker.Execute(ctx, func(ctx context.Context) error {
			return w.store.Delete(ctx, key)
		})
	})
	w.observe("delete", key, err)
	tracing.End(span, err)
	return err
}

// GetCircuitBreakerStats returns circuit breaker statistics
func (w *ObjectStoreWrapper) GetCircuitBreakerStats() circuitbreaker.Stats {
	return w.circuitBreaker.GetStats()
}

func (w *ObjectStoreWrapper) observe(op, key string, err error) {
	w.metrics.RecordObjectStoreOperation(w.name, op, err)
	if err != nil {
		w.logger.Warnw("object store operation failed",
			"store", w.name,
			"operation", op,
			"key", key,
			"error", err,
		)
	}
}
