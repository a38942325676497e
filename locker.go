package labops

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Locker serialises work on a key across processes.
type Locker interface {
	// Obtain returns ErrUploadInProgress while another holder has the key.
	Obtain(ctx context.Context, key string) (Lock, error)
}

type Lock interface {
	Release(ctx context.Context) error
}

type redisLocker struct {
	client *redislock.Client
	ttl    time.Duration
}

func NewRedisLocker(redisClient redis.UniversalClient, ttl time.Duration) Locker {
	return &redisLocker{
		client: redislock.New(redisClient),
		ttl:    ttl,
	}
}

func (l *redisLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, l.ttl, nil)
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, errors.Wrapf(ErrUploadInProgress, "%s is locked", key)
		}
		log.Error().Err(err).Str("key", key).Msg("obtaining redis lock failed")
		return nil, err
	}
	return lock, nil
}

type noopLocker struct{}

type noopLock struct{}

// NewNoopLocker grants every lock. Used when no redis is configured.
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) Obtain(ctx context.Context, key string) (Lock, error) {
	return noopLock{}, nil
}

func (noopLock) Release(ctx context.Context) error {
	return nil
}
