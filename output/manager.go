package output

import (
	"context"
	"fmt"
	"sync"

	"github.com/hesphoros/lumberhouse/corelog"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// WriteMode controls how a Manager dispatches one record to its sinks.
type WriteMode int

const (
	// Sequential writes to each sink in registration order on the
	// caller's goroutine, continuing past a failed sink.
	Sequential WriteMode = iota
	// Parallel fans out to every sink concurrently and waits for all of
	// them before returning, via golang.org/x/sync/errgroup.
	Parallel
	// Async fans out concurrently without waiting; Flush waits for the
	// dispatches still in flight.
	Async
)

// ManagerStats aggregates counters across all registered sinks.
type ManagerStats struct {
	TotalDispatched uint64
	PerSink         map[string]SinkStats
}

// Manager owns the set of registered Sinks and fans out each accepted
// record to all of them, honoring Mode.
type Manager struct {
	mu    sync.RWMutex
	order []string
	sinks map[string]Sink
	mode  WriteMode

	asyncWG sync.WaitGroup
}

// NewManager builds an empty Manager in the given WriteMode.
func NewManager(mode WriteMode) *Manager {
	return &Manager{sinks: make(map[string]Sink), mode: mode}
}

// Mode returns the manager's current write mode.
func (m *Manager) Mode() WriteMode { return m.mode }

// SetMode changes the write mode used by future Write calls.
func (m *Manager) SetMode(mode WriteMode) {
	m.mu.Lock()
	m.mode = mode
	m.mu.Unlock()
}

// AddSink registers sink under its own Name(), replacing any existing
// sink with the same name.
func (m *Manager) AddSink(sink Sink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name := sink.Name()
	if _, exists := m.sinks[name]; !exists {
		m.order = append(m.order, name)
	}
	m.sinks[name] = sink
}

// RemoveSink closes and unregisters the sink with the given name.
func (m *Manager) RemoveSink(name string) error {
	m.mu.Lock()
	sink, ok := m.sinks[name]
	if ok {
		delete(m.sinks, name)
		for i, n := range m.order {
			if n == name {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("output: no sink named %q", name)
	}
	return sink.Close()
}

// GetSink returns the sink registered under name, if any.
func (m *Manager) GetSink(name string) (Sink, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sinks[name]
	return s, ok
}

// Sinks returns the registered sinks in registration order.
func (m *Manager) Sinks() []Sink {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Sink, 0, len(m.order))
	for _, n := range m.order {
		out = append(out, m.sinks[n])
	}
	return out
}

// Write fans record out to every registered sink per the manager's
// WriteMode, returning the first sink error encountered (Sequential and
// Parallel) or nil immediately (Async).
func (m *Manager) Write(ctx context.Context, record *corelog.Record) error {
	m.mu.RLock()
	mode := m.mode
	sinks := make([]Sink, 0, len(m.order))
	for _, n := range m.order {
		sinks = append(sinks, m.sinks[n])
	}
	m.mu.RUnlock()

	switch mode {
	case Sequential:
		var firstErr error
		for _, s := range sinks {
			if Dispatch(s, record) == Failed && firstErr == nil {
				firstErr = fmt.Errorf("output: sink %q failed", s.Name())
			}
		}
		return firstErr

	case Parallel:
		g, _ := errgroup.WithContext(ctx)
		for _, s := range sinks {
			s := s
			g.Go(func() error {
				if Dispatch(s, record) == Failed {
					return fmt.Errorf("output: sink %q failed", s.Name())
				}
				return nil
			})
		}
		return g.Wait()

	case Async:
		for _, s := range sinks {
			s := s
			m.asyncWG.Add(1)
			go func() {
				defer m.asyncWG.Done()
				Dispatch(s, record)
			}()
		}
		return nil

	default:
		return fmt.Errorf("output: unknown write mode %d", mode)
	}
}

// Flush blocks until every in-flight Async dispatch has completed. It
// is a no-op under Sequential/Parallel modes, which are already
// synchronous by the time Write returns.
func (m *Manager) Flush() {
	m.asyncWG.Wait()
}

// Close closes every registered sink, aggregating errors with
// go.uber.org/multierr the way the teacher aggregates multi-handler
// close errors.
func (m *Manager) Close() error {
	m.mu.Lock()
	sinks := make([]Sink, 0, len(m.order))
	for _, n := range m.order {
		sinks = append(sinks, m.sinks[n])
	}
	m.order = nil
	m.sinks = make(map[string]Sink)
	m.mu.Unlock()

	var err error
	for _, s := range sinks {
		if cerr := s.Close(); cerr != nil {
			err = multierr.Append(err, fmt.Errorf("output: close sink %q: %w", s.Name(), cerr))
		}
	}
	return err
}

// Stats returns an aggregate snapshot across all registered sinks.
func (m *Manager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := ManagerStats{PerSink: make(map[string]SinkStats, len(m.order))}
	for _, n := range m.order {
		snap := m.sinks[n].Stats()
		out.PerSink[n] = snap
		out.TotalDispatched += snap.TotalLogs
	}
	return out
}
