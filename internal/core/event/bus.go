package event

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClareAI/astra-fleet-dashboard/pkg/logger"
	"go.uber.org/zap"
)

// EventHandler handles events delivered in-process
type EventHandler func(event *CallEvent)

// EventMiddleware wraps event handlers
type EventMiddleware func(next EventHandler) EventHandler

// Sink forwards events to an external system
type Sink interface {
	Name() string
	Publish(ctx context.Context, event *CallEvent) error
	Close() error
}

// Publisher is what services depend on to emit events
type Publisher interface {
	Publish(ctx context.Context, event *CallEvent) error
}

// BusStats contains statistics about the event bus
type BusStats struct {
	TotalEvents    int64            `json:"total_events"`
	EventsByType   map[string]int64 `json:"events_by_type"`
	SinkErrors     map[string]int64 `json:"sink_errors"`
	ActiveHandlers int              `json:"active_handlers"`
	Sinks          []string         `json:"sinks"`
}

type subscription struct {
	id        uint64
	eventType EventType // empty matches every type
	handler   EventHandler
}

// Bus delivers events to in-process subscribers and external sinks
type Bus struct {
	subscribers   []subscription
	sinks         []Sink
	middleware    []EventMiddleware
	nextID        uint64
	sinkTimeout   time.Duration
	mutex         sync.RWMutex
	stats         BusStats
	statsMutex    sync.Mutex
	checkedErrors int64 // sink errors already reported by Check
	closed        bool
}

// NewBus creates an event bus forwarding to sinks
func NewBus(sinks ...Sink) *Bus {
	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}

	return &Bus{
		sinks:       sinks,
		sinkTimeout: 5 * time.Second,
		stats: BusStats{
			EventsByType: make(map[string]int64),
			SinkErrors:   make(map[string]int64),
			Sinks:        names,
		},
	}
}

// Use adds middleware applied to in-process handlers
func (b *Bus) Use(middleware EventMiddleware) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	b.middleware = append(b.middleware, middleware)
}

// Subscribe registers handler for eventType, or for every type when eventType
// is empty. The returned func removes the subscription.
func (b *Bus) Subscribe(eventType EventType, handler EventHandler) (func(), error) {
	if handler == nil {
		return nil, fmt.Errorf("handler cannot be nil")
	}

	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return nil, fmt.Errorf("event bus is closed")
	}

	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscription{id: id, eventType: eventType, handler: handler})

	return func() { b.unsubscribe(id) }, nil
}

func (b *Bus) unsubscribe(id uint64) {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			return
		}
	}
}

// Publish hands event to matching subscribers asynchronously and to every sink
// synchronously. Sink failures are logged and counted, never returned, so a
// broken broker cannot fail a call operation.
func (b *Bus) Publish(ctx context.Context, event *CallEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}

	b.mutex.RLock()
	if b.closed {
		b.mutex.RUnlock()
		return fmt.Errorf("event bus is closed")
	}
	handlers := make([]EventHandler, 0, len(b.subscribers))
	for _, s := range b.subscribers {
		if s.eventType == "" || s.eventType == event.Type {
			handlers = append(handlers, b.wrap(s.handler))
		}
	}
	sinks := b.sinks
	b.mutex.RUnlock()

	b.recordEvent(event.Type)

	for _, h := range handlers {
		go func(h EventHandler) {
			defer func() {
				if r := recover(); r != nil {
					logger.Base().Error("Event handler panic", zap.String("type", string(event.Type)), zap.Any("panic", r))
				}
			}()
			h(event)
		}(h)
	}

	for _, sink := range sinks {
		sinkCtx, cancel := context.WithTimeout(ctx, b.sinkTimeout)
		err := sink.Publish(sinkCtx, event)
		cancel()
		if err != nil {
			b.recordSinkError(sink.Name())
			logger.Warn(ctx, "Failed to forward event",
				zap.String("sink", sink.Name()),
				zap.String("type", string(event.Type)),
				zap.Error(err))
		}
	}
	return nil
}

// must be called with b.mutex held
func (b *Bus) wrap(h EventHandler) EventHandler {
	final := h
	for i := len(b.middleware) - 1; i >= 0; i-- {
		final = b.middleware[i](final)
	}
	return final
}

// Close stops delivery and closes every sink
func (b *Bus) Close() error {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.subscribers = nil

	var firstErr error
	for _, sink := range b.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close sink %s: %w", sink.Name(), err)
		}
	}
	logger.Base().Info("Event bus closed")
	return firstErr
}

// Stats returns a copy of the bus statistics
func (b *Bus) Stats() BusStats {
	b.mutex.RLock()
	active := len(b.subscribers)
	b.mutex.RUnlock()

	b.statsMutex.Lock()
	defer b.statsMutex.Unlock()

	stats := BusStats{
		TotalEvents:    b.stats.TotalEvents,
		EventsByType:   make(map[string]int64, len(b.stats.EventsByType)),
		SinkErrors:     make(map[string]int64, len(b.stats.SinkErrors)),
		ActiveHandlers: active,
		Sinks:          append([]string(nil), b.stats.Sinks...),
	}
	for k, v := range b.stats.EventsByType {
		stats.EventsByType[k] = v
	}
	for k, v := range b.stats.SinkErrors {
		stats.SinkErrors[k] = v
	}
	return stats
}

func (b *Bus) recordEvent(t EventType) {
	b.statsMutex.Lock()
	defer b.statsMutex.Unlock()
	b.stats.TotalEvents++
	b.stats.EventsByType[string(t)]++
}

func (b *Bus) recordSinkError(name string) {
	b.statsMutex.Lock()
	defer b.statsMutex.Unlock()
	b.stats.SinkErrors[name]++
}

// Check reports the bus as unhealthy once it is closed or when a sink failed
// since the previous check
func (b *Bus) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mutex.RLock()
	closed := b.closed
	b.mutex.RUnlock()
	if closed {
		return fmt.Errorf("event bus is closed")
	}

	b.statsMutex.Lock()
	defer b.statsMutex.Unlock()
	var total int64
	for _, n := range b.stats.SinkErrors {
		total += n
	}
	failed := total - b.checkedErrors
	b.checkedErrors = total
	if failed > 0 {
		return fmt.Errorf("%d event deliveries to sinks failed", failed)
	}
	return nil
}
