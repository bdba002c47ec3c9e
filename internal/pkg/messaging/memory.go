package messaging

import (
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

var ErrMemoryTopicRequired = errors.New("messaging: memory topic is required")

const memoryBuffer = 256

// Memory is an in-process broker. Every consumer group of a topic receives
// each message once, consumers sharing a group compete for it. Messages
// published before any consumer subscribes are dropped.
type Memory struct {
	mu     sync.RWMutex
	topics map[string]map[string]chan *memoryMessage
	closed bool
	seq    atomic.Uint64
}

func NewMemory() *Memory {
	return &Memory{topics: map[string]map[string]chan *memoryMessage{}}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *Memory) Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error) {
	if destination == "" {
		return PublishResult{}, ErrMemoryTopicRequired
	}

	m.mu.RLock()
	if m.closed {
		m.mu.RUnlock()
		return PublishResult{}, io.ErrClosedPipe
	}
	groups := make([]chan *memoryMessage, 0, len(m.topics[destination]))
	for _, ch := range m.topics[destination] {
		groups = append(groups, ch)
	}
	m.mu.RUnlock()

	id := strconv.FormatUint(m.seq.Add(1), 10)
	now := time.Now()
	for _, ch := range groups {
		mm := &memoryMessage{
			id:      id,
			topic:   destination,
			body:    append([]byte(nil), msg.Body...),
			key:     append([]byte(nil), msg.Key...),
			headers: append([]Header(nil), msg.Headers...),
			ts:      now,
			queue:   ch,
		}
		select {
		case ch <- mm:
		case <-ctx.Done():
			return PublishResult{}, ctx.Err()
		}
	}

	return PublishResult{MessageID: id, Topic: destination, Timestamp: now}, nil
}

func (m *Memory) Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error {
	if source == "" {
		return ErrMemoryTopicRequired
	}
	co := newConsumeOptions(opts...)
	queue, err := m.queue(source, memoryGroup(co))
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	for range co.concurrency {
		wg.Go(func() {
			for {
				select {
				case <-ctx.Done():
					return
				case msg := <-queue:
					_ = dispatch(ctx, DriverMemory, handler, msg, co.autoAck)
				}
			}
		})
	}
	wg.Wait()
	return ctx.Err()
}

func (m *Memory) queue(topic, group string) (chan *memoryMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, io.ErrClosedPipe
	}
	groups, ok := m.topics[topic]
	if !ok {
		groups = map[string]chan *memoryMessage{}
		m.topics[topic] = groups
	}
	ch, ok := groups[group]
	if !ok {
		ch = make(chan *memoryMessage, memoryBuffer)
		groups[group] = ch
	}
	return ch, nil
}

func memoryGroup(co consumeOptions) string {
	for _, g := range []string{co.group, co.channel, co.queueGroup, co.subscription} {
		if g != "" {
			return g
		}
	}
	return ""
}

type memoryMessage struct {
	settle
	id      string
	topic   string
	body    []byte
	key     []byte
	headers []Header
	ts      time.Time
	queue   chan *memoryMessage
}

func (m *memoryMessage) Body() []byte         { return m.body }
func (m *memoryMessage) Key() []byte          { return m.key }
func (m *memoryMessage) Headers() []Header    { return m.headers }
func (m *memoryMessage) ID() string           { return m.id }
func (m *memoryMessage) Topic() string        { return m.topic }
func (m *memoryMessage) Timestamp() time.Time { return m.ts }

func (m *memoryMessage) Ack(context.Context) error {
	m.first()
	return nil
}

// Nack puts a fresh copy back on the queue.
func (m *memoryMessage) Nack(context.Context) error {
	if !m.first() {
		return nil
	}
	retry := &memoryMessage{id: m.id, topic: m.topic, body: m.body, key: m.key, headers: m.headers, ts: m.ts, queue: m.queue}
	go func() { m.queue <- retry }()
	return nil
}
