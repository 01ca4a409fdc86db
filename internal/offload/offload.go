// Package offload moves CPU-bound marker transforms onto a dedicated
// background worker goroutine, with a transparent synchronous fallback when
// the worker is disabled. Both paths execute the same internal/cluster code.
package offload

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/localelore/localelore/internal/cluster"
	"github.com/localelore/localelore/internal/core/domain"
	"github.com/localelore/localelore/internal/pkg/metrics"
)

// TaskType identifies an offloadable transform.
type TaskType string

const (
	TaskCluster      TaskType = "cluster"
	TaskFilterBounds TaskType = "filter_bounds"
	TaskGeoJSON      TaskType = "geojson"
)

// Cluster algorithm selectors.
const (
	AlgoGrid   = "grid"
	AlgoGreedy = "greedy"
)

// ErrClosed is returned for tasks submitted after Close.
var ErrClosed = errors.New("offload: closed")

type payload struct {
	markers  []domain.FactMarker
	clusters []domain.MarkerCluster
	bounds   *domain.Bounds
	zoom     int
	radiusPx float64
	algo     string
}

type task struct {
	id  string
	typ TaskType
	p   payload
}

type result struct {
	id    string
	value any
	err   error
}

// Offloader owns one reusable worker goroutine. Tasks carry a correlation ID;
// results arriving on the shared results channel are matched back to their
// pending caller and settled exactly once. A panic inside a task is converted
// to that caller's error and never brings the worker down.
type Offloader struct {
	tasks   chan task
	results chan result

	mu      sync.Mutex
	pending map[string]chan result
	closed  bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates an Offloader. With enabled=false (or whenever the worker is
// unavailable) every call runs synchronously in the caller's goroutine;
// callers cannot observe which path was taken.
func New(enabled bool, queueSize int) *Offloader {
	if !enabled {
		return &Offloader{}
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	o := &Offloader{
		tasks:   make(chan task, queueSize),
		results: make(chan result, queueSize),
		pending: make(map[string]chan result),
		done:    make(chan struct{}),
	}
	o.wg.Add(2)
	go o.work()
	go o.dispatch()
	return o
}

// Enabled reports whether the background worker is running.
func (o *Offloader) Enabled() bool { return o != nil && o.tasks != nil }

func (o *Offloader) work() {
	defer o.wg.Done()
	for {
		select {
		case t := <-o.tasks:
			value, err := runSafe(t.typ, t.p)
			select {
			case o.results <- result{id: t.id, value: value, err: err}:
			case <-o.done:
				return
			}
		case <-o.done:
			return
		}
	}
}

func (o *Offloader) dispatch() {
	defer o.wg.Done()
	for {
		select {
		case r := <-o.results:
			o.mu.Lock()
			ch, ok := o.pending[r.id]
			delete(o.pending, r.id)
			o.mu.Unlock()
			if ok {
				ch <- r
			}
		case <-o.done:
			return
		}
	}
}

// runSafe executes a task, converting panics into errors so the worker stays
// reusable for subsequent tasks.
func runSafe(typ TaskType, p payload) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("offload: task %s panicked: %v", typ, r)
		}
	}()
	switch typ {
	case TaskCluster:
		if p.algo == AlgoGreedy {
			return cluster.GreedyCluster(p.markers, p.zoom, p.radiusPx), nil
		}
		return cluster.GridCluster(p.markers, p.zoom, p.bounds), nil
	case TaskFilterBounds:
		if p.bounds == nil {
			return nil, errors.New("offload: filter_bounds requires bounds")
		}
		return cluster.FilterBounds(p.markers, *p.bounds), nil
	case TaskGeoJSON:
		return cluster.ToGeoJSON(p.clusters), nil
	default:
		return nil, fmt.Errorf("offload: unknown task type %q", typ)
	}
}

func (o *Offloader) execute(ctx context.Context, typ TaskType, p payload) (any, error) {
	if !o.Enabled() {
		metrics.OffloadTasks.WithLabelValues(string(typ), "inline").Inc()
		return runSafe(typ, p)
	}

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	t := task{id: uuid.NewString(), typ: typ, p: p}
	ch := make(chan result, 1)
	o.pending[t.id] = ch
	o.mu.Unlock()

	select {
	case o.tasks <- t:
	case <-ctx.Done():
		o.abandon(t.id)
		return nil, ctx.Err()
	case <-o.done:
		o.abandon(t.id)
		return nil, ErrClosed
	}

	metrics.OffloadTasks.WithLabelValues(string(typ), "worker").Inc()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-ctx.Done():
		o.abandon(t.id)
		return nil, ctx.Err()
	case <-o.done:
		o.abandon(t.id)
		return nil, ErrClosed
	}
}

func (o *Offloader) abandon(id string) {
	o.mu.Lock()
	delete(o.pending, id)
	o.mu.Unlock()
}

// Cluster computes marker clusters with the chosen algorithm ("grid" or
// "greedy"); radiusPx only applies to the greedy variant.
func (o *Offloader) Cluster(ctx context.Context, markers []domain.FactMarker, zoom int, bounds *domain.Bounds, algo string, radiusPx float64) ([]domain.MarkerCluster, error) {
	v, err := o.execute(ctx, TaskCluster, payload{markers: markers, zoom: zoom, bounds: bounds, algo: algo, radiusPx: radiusPx})
	if err != nil {
		return nil, err
	}
	return v.([]domain.MarkerCluster), nil
}

// FilterBounds keeps only the markers inside bounds.
func (o *Offloader) FilterBounds(ctx context.Context, markers []domain.FactMarker, bounds domain.Bounds) ([]domain.FactMarker, error) {
	v, err := o.execute(ctx, TaskFilterBounds, payload{markers: markers, bounds: &bounds})
	if err != nil {
		return nil, err
	}
	return v.([]domain.FactMarker), nil
}

// ToGeoJSON converts clusters into a GeoJSON feature collection.
func (o *Offloader) ToGeoJSON(ctx context.Context, clusters []domain.MarkerCluster) (*cluster.FeatureCollection, error) {
	v, err := o.execute(ctx, TaskGeoJSON, payload{clusters: clusters})
	if err != nil {
		return nil, err
	}
	return v.(*cluster.FeatureCollection), nil
}

// Close stops the worker and dispatcher. Pending callers are released with
// ErrClosed; subsequent calls fall back to ErrClosed as well.
func (o *Offloader) Close() {
	if !o.Enabled() {
		return
	}
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.mu.Unlock()
	close(o.done)
	o.wg.Wait()
}
