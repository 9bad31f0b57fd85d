// Package fetch tracks the lifecycle of one bound content query:
// idle → loading → loaded | failed. Lower-layer errors never cross this
// boundary as panics or raw returns; they become a Failed snapshot.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"jbeauty/content/internal/cms"
	"jbeauty/content/internal/groq"
	"jbeauty/content/internal/metrics"
	"jbeauty/content/internal/view"
)

// State is the lifecycle state of a bound query.
type State string

const (
	StateIdle    State = "idle"
	StateLoading State = "loading"
	StateLoaded  State = "loaded"
	StateFailed  State = "failed"
)

// ErrorKind classifies a failed fetch for the consumer.
type ErrorKind string

const (
	ErrorTransport ErrorKind = "transport"
	ErrorDecode    ErrorKind = "decode"
	ErrorNormalize ErrorKind = "normalize"
	ErrorInternal  ErrorKind = "internal"
)

// Snapshot is a read-only view of the controller state. Data is meaningful
// only in StateLoaded; Err and Kind only in StateFailed.
type Snapshot[T any] struct {
	State State
	Data  T
	Err   error
	Kind  ErrorKind
}

// Runner executes the transport call and normalization for one query. It runs
// inside the Loading transition.
type Runner[T any] func(ctx context.Context, q groq.Query) (T, error)

// Controller owns the fetch state for one query binding. All methods are safe
// for concurrent use; when the bound query changes while a fetch is in
// flight, the in-flight result is discarded on arrival (last-query-wins).
type Controller[T any] struct {
	entity string
	run    Runner[T]

	mu         sync.Mutex
	query      groq.Query
	key        string
	generation uint64
	snap       Snapshot[T]
}

// New creates an idle controller. entity labels the metrics.
func New[T any](entity string, run Runner[T]) *Controller[T] {
	return &Controller[T]{
		entity: entity,
		run:    run,
		snap:   Snapshot[T]{State: StateIdle},
	}
}

// Snapshot returns the current state without triggering a fetch.
func (c *Controller[T]) Snapshot() Snapshot[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// Bind binds the controller to q and fetches if the query identity changed or
// the controller is idle. Terminal states for an unchanged query are returned
// as-is; re-fetching a loaded query requires Refetch.
func (c *Controller[T]) Bind(ctx context.Context, q groq.Query) Snapshot[T] {
	c.mu.Lock()
	if c.key == q.Key() && c.snap.State != StateIdle {
		snap := c.snap
		c.mu.Unlock()
		return snap
	}
	gen := c.startLoadingLocked(q)
	c.mu.Unlock()

	return c.execute(ctx, q, gen)
}

// Refetch re-runs the currently bound query. It is the only way to leave a
// terminal state without changing the query identity.
func (c *Controller[T]) Refetch(ctx context.Context) Snapshot[T] {
	c.mu.Lock()
	if c.key == "" {
		snap := c.snap
		c.mu.Unlock()
		return snap
	}
	q := c.query
	gen := c.startLoadingLocked(q)
	c.mu.Unlock()

	return c.execute(ctx, q, gen)
}

// startLoadingLocked records the new binding and transitions to Loading.
// Bumping the generation is what invalidates any in-flight fetch.
func (c *Controller[T]) startLoadingLocked(q groq.Query) uint64 {
	c.query = q
	c.key = q.Key()
	c.generation++
	c.snap = Snapshot[T]{State: StateLoading}
	metrics.Default().FetchTransitionTotal.WithLabelValues(c.entity, string(StateLoading)).Inc()
	return c.generation
}

func (c *Controller[T]) execute(ctx context.Context, q groq.Query, gen uint64) Snapshot[T] {
	data, err := c.runSafe(ctx, q)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation != gen {
		// The binding moved on while this fetch was in flight; the stale
		// result gets no transition.
		metrics.Default().StaleResultTotal.WithLabelValues(c.entity).Inc()
		return c.snap
	}

	if err != nil {
		c.snap = Snapshot[T]{State: StateFailed, Err: err, Kind: classify(err)}
	} else {
		c.snap = Snapshot[T]{State: StateLoaded, Data: data}
	}
	metrics.Default().FetchTransitionTotal.WithLabelValues(c.entity, string(c.snap.State)).Inc()
	return c.snap
}

// runSafe converts a runner panic into a Failed-state error instead of
// letting it escape into the caller.
func (c *Controller[T]) runSafe(ctx context.Context, q groq.Query) (data T, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("fetch: %s runner panicked: %v", c.entity, r)
			err = fmt.Errorf("fetch runner panic: %v", r)
		}
	}()
	return c.run(ctx, q)
}

func classify(err error) ErrorKind {
	var transportErr *cms.TransportError
	if errors.As(err, &transportErr) {
		return ErrorTransport
	}
	var decodeErr *cms.DecodeError
	if errors.As(err, &decodeErr) {
		return ErrorDecode
	}
	var normErr *view.NormalizationError
	if errors.As(err, &normErr) {
		return ErrorNormalize
	}
	return ErrorInternal
}
