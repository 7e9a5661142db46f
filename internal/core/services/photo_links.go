package services

import (
	"context"
	"time"

	"proctorhub/internal/core/ports"

	"go.uber.org/zap"
)

// photoLinks signs download links for stored student photos. Records written
// before keys were kept, or a service built without a store, fall back to the
// stored URL.
type photoLinks struct {
	store  ports.ObjectStore
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func newPhotoLinks(store ports.ObjectStore, ttl time.Duration, logger *zap.SugaredLogger) photoLinks {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return photoLinks{store: store, ttl: ttl, logger: logger}
}

func (l photoLinks) resolve(ctx context.Context, key, fallback string) string {
	if key == "" || l.store == nil {
		return fallback
	}
	url, err := l.store.SignedURL(ctx, key, l.ttl)
	if err != nil {
		l.logger.Warnw("failed to sign photo url", "key", key, "error", err)
		return fallback
	}
	return url
}
