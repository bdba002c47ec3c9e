// Package idempotency guards side effects that must happen at most once per
// key, such as sending a welcome email for a redelivered event.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("idempotency: operation already in progress")
	ErrAlreadyCompleted  = errors.New("idempotency: operation already completed")
	ErrInvalidState      = errors.New("idempotency: invalid state")
)

type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

type Idempotency interface {
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

// Redis keeps one key per operation. A failed operation releases its key so
// a later attempt can run.
type Redis struct {
	client redis.Cmdable
	prefix string
}

func NewRedis(client redis.Cmdable, prefix string) *Redis {
	if prefix == "" {
		prefix = "idempotency:"
	}
	return &Redis{client: client, prefix: prefix}
}

type Option func(*execOptions)

type execOptions struct {
	lock time.Duration
	keep time.Duration
}

// WithLockDuration bounds how long an in-progress claim survives a crash.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lock = d }
}

// WithCompletedTTL sets how long a completed key is remembered.
func WithCompletedTTL(d time.Duration) Option {
	return func(o *execOptions) { o.keep = d }
}

func (r *Redis) acquire(ctx context.Context, key string, lock time.Duration) (State, error) {
	ok, err := r.client.SetNX(ctx, key, string(StateInProgress), lock).Result()
	if err != nil {
		return "", err
	}
	if ok {
		return StateNone, nil
	}

	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// expired between SetNX and Get
		return r.acquire(ctx, key, lock)
	}
	if err != nil {
		return "", err
	}

	switch State(val) {
	case StateInProgress, StateCompleted:
		return State(val), nil
	default:
		return "", ErrInvalidState
	}
}

func (r *Redis) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	o := execOptions{lock: time.Minute, keep: 24 * time.Hour}
	for _, opt := range opts {
		opt(&o)
	}

	fk := r.prefix + key
	state, err := r.acquire(ctx, fk, o.lock)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	}

	if err := fn(ctx); err != nil {
		return errors.Join(err, r.client.Del(context.WithoutCancel(ctx), fk).Err())
	}

	return r.client.Set(ctx, fk, string(StateCompleted), o.keep).Err()
}
