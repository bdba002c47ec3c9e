package knowledge

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/sportsclub/internal/assistant/entity"
	"github.com/shandysiswandi/sportsclub/internal/pkg/clock"
	"github.com/shandysiswandi/sportsclub/internal/pkg/instrument"
	"github.com/shandysiswandi/sportsclub/internal/pkg/storage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const maxDocumentSize = 1 << 20

type Config struct {
	Bucket     string
	Key        string
	TTL        time.Duration
	PerSection int
}

// Loader reads the knowledge document from storage and keeps it for TTL.
// When a refresh fails the previous copy keeps being served.
type Loader struct {
	store storage.Storage
	cfg   Config
	clock clock.Clocker
	ins   instrument.Instrumentation

	mu     sync.Mutex
	cached *entity.Knowledge
}

func NewLoader(store storage.Storage, cfg Config, clk clock.Clocker, ins instrument.Instrumentation) *Loader {
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.PerSection <= 0 {
		cfg.PerSection = 3
	}
	return &Loader{store: store, cfg: cfg, clock: clk, ins: ins}
}

func (l *Loader) Load(ctx context.Context) (_ entity.Knowledge, err error) {
	ctx, span := l.ins.Tracer("assistant.outbound.knowledge").Start(ctx, "Load")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if l.cached != nil && now.Sub(l.cached.LoadedAt) < l.cfg.TTL {
		span.SetAttributes(attribute.Bool("knowledge.cache_hit", true))
		return *l.cached, nil
	}

	k, err := l.fetch(ctx, now)
	if err != nil {
		if l.cached != nil {
			slog.WarnContext(ctx, "failed to refresh knowledge document, serving cached copy", "key", l.cfg.Key, "error", err)
			return *l.cached, nil
		}
		return entity.Knowledge{}, err
	}

	l.cached = &k
	return k, nil
}

func (l *Loader) fetch(ctx context.Context, now time.Time) (entity.Knowledge, error) {
	r, info, err := l.store.GetObject(ctx, l.cfg.Bucket, l.cfg.Key)
	if err != nil {
		return entity.Knowledge{}, err
	}
	defer r.Close()

	raw, err := io.ReadAll(io.LimitReader(r, maxDocumentSize+1))
	if err != nil {
		return entity.Knowledge{}, err
	}
	if len(raw) > maxDocumentSize {
		return entity.Knowledge{}, fmt.Errorf("knowledge: document %s exceeds %d bytes", l.cfg.Key, maxDocumentSize)
	}

	slog.InfoContext(ctx, "knowledge document loaded", "key", l.cfg.Key, "size", len(raw), "etag", info.ETag)
	return entity.NewKnowledge(string(raw), l.cfg.PerSection, now), nil
}
