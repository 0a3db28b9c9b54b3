package poller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FetchFunc loads one value of a polled resource.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// State is a point-in-time copy of a query. Data holds the last successful
// value and survives later errors.
type State[T any] struct {
	Data       T
	HasData    bool
	Status     Status
	Err        error
	UpdatedAt  time.Time
	ErrorAt    time.Time
	IsFetching bool
}

// Query caches one polled resource with a staleness window.
type Query[T any] struct {
	name      string
	fetch     FetchFunc[T]
	staleTime time.Duration
	logger    *zap.Logger

	mu        sync.Mutex
	state     State[T]
	listeners []func(State[T])

	timeNow func() time.Time // For testing
}

func NewQuery[T any](name string, fetch FetchFunc[T], staleTime time.Duration, logger *zap.Logger) *Query[T] {
	return &Query[T]{
		name:      name,
		fetch:     fetch,
		staleTime: staleTime,
		logger:    logger,
		state:     State[T]{Status: StatusIdle},
		timeNow:   time.Now,
	}
}

func (q *Query[T]) Name() string {
	return q.name
}

// OnChange registers fn to be called after every state transition.
func (q *Query[T]) OnChange(fn func(State[T])) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.listeners = append(q.listeners, fn)
}

func (q *Query[T]) Snapshot() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

func (q *Query[T]) IsStale() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.isStaleLocked()
}

func (q *Query[T]) isStaleLocked() bool {
	if !q.state.HasData {
		return true
	}
	return q.timeNow().Sub(q.state.UpdatedAt) >= q.staleTime
}

// Get returns the current state at once. When the data is stale and no fetch
// is running, a background refetch is started.
func (q *Query[T]) Get(ctx context.Context) State[T] {
	q.mu.Lock()
	snap := q.state
	revalidate := !snap.IsFetching && q.isStaleLocked()
	q.mu.Unlock()

	if revalidate {
		go q.Refetch(context.WithoutCancel(ctx))
	}
	return snap
}

// Refetch runs one fetch. It returns false without fetching when another
// fetch of this query is still in flight.
func (q *Query[T]) Refetch(ctx context.Context) bool {
	q.mu.Lock()
	if q.state.IsFetching {
		q.mu.Unlock()
		q.logger.Debug("Skipping refetch, previous fetch still running", zap.String("query", q.name))
		return false
	}
	q.state.IsFetching = true
	q.state.Status = StatusLoading
	q.mu.Unlock()
	q.notify()

	data, err := q.run(ctx)

	q.mu.Lock()
	now := q.timeNow()
	q.state.IsFetching = false
	if err != nil {
		q.state.Status = StatusError
		q.state.Err = err
		q.state.ErrorAt = now
	} else {
		q.state.Data = data
		q.state.HasData = true
		q.state.Status = StatusSuccess
		q.state.Err = nil
		q.state.UpdatedAt = now
	}
	q.mu.Unlock()

	if err != nil {
		q.logger.Warn("Poll failed, keeping last value", zap.String("query", q.name), zap.Error(err))
	}
	q.notify()
	return true
}

func (q *Query[T]) run(ctx context.Context) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("fetch %s panicked: %v", q.name, r)
		}
	}()
	return q.fetch(ctx)
}

func (q *Query[T]) notify() {
	q.mu.Lock()
	snap := q.state
	listeners := make([]func(State[T]), len(q.listeners))
	copy(listeners, q.listeners)
	q.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}
