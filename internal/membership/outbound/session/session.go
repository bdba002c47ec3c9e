package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/sportsclub/internal/membership/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	keyPrefix  = "sportsclub:session:"
	defaultTTL = 24 * time.Hour
)

// Redis keeps one JSON blob per session id. Every Save pushes the expiry
// forward and an empty session is deleted instead of stored.
type Redis struct {
	client redis.Cmdable
	ttl    time.Duration
	ins    instrument.Instrumentation
}

func NewRedis(client redis.Cmdable, ttl time.Duration, ins instrument.Instrumentation) *Redis {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Redis{client: client, ttl: ttl, ins: ins}
}

func (r *Redis) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return r.ins.Tracer("membership.outbound.session").Start(ctx, name)
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (r *Redis) Get(ctx context.Context, id string) (_ *entity.Session, err error) {
	ctx, span := r.startSpan(ctx, "Get")
	defer func() { endSpan(span, err) }()

	raw, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return &entity.Session{}, nil
	}
	if err != nil {
		return nil, err
	}

	var sess entity.Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *Redis) Save(ctx context.Context, id string, sess *entity.Session) (err error) {
	ctx, span := r.startSpan(ctx, "Save")
	defer func() { endSpan(span, err) }()

	if sess == nil || sess.IsEmpty() {
		return r.client.Del(ctx, keyPrefix+id).Err()
	}

	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+id, raw, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, id string) (err error) {
	ctx, span := r.startSpan(ctx, "Delete")
	defer func() { endSpan(span, err) }()

	return r.client.Del(ctx, keyPrefix+id).Err()
}
