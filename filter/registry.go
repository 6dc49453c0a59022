package filter

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hesphoros/lumberhouse/corelog"
)

// SerializedFilter is the on-wire shape described in spec §4.5: a type
// tag, bookkeeping metadata, and a type-specific config payload.
type SerializedFilter struct {
	Type        string          `json:"type" yaml:"type"`
	Enabled     bool            `json:"enabled" yaml:"enabled"`
	Priority    int             `json:"priority" yaml:"priority"`
	Description string          `json:"description" yaml:"description"`
	Version     int             `json:"version" yaml:"version"`
	Config      json.RawMessage `json:"config" yaml:"config"`
}

// Meta carries the bookkeeping fields the serialized envelope wraps
// around a Filter's own configuration.
type Meta struct {
	Enabled     bool
	Priority    int
	Description string
	Version     int
}

type registryEntry struct {
	create    func(raw json.RawMessage) (Filter, error)
	serialize func(f Filter) (json.RawMessage, error)
}

// Registry is the process-wide type-name -> {creator, serializer} map
// described in spec §4.5. Construct via NewRegistry for isolated tests;
// Default() returns the lazily-initialized global instance.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]registryEntry
}

// NewRegistry returns an empty Registry with no built-in types
// registered.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]registryEntry)}
}

// Register associates typeName with create/serialize functions.
// Re-registering the same type name is idempotent (last write wins),
// matching "must be idempotent" in spec §4.5.
func (r *Registry) Register(typeName string, create func(json.RawMessage) (Filter, error), serialize func(Filter) (json.RawMessage, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[typeName] = registryEntry{create: create, serialize: serialize}
}

// Serialize wraps f in the envelope shape, using the registered
// serializer for f.TypeName(). Returns an error if the type isn't
// registered.
func (r *Registry) Serialize(f Filter, meta Meta) (SerializedFilter, error) {
	r.mu.RLock()
	entry, ok := r.entries[f.TypeName()]
	r.mu.RUnlock()
	if !ok {
		return SerializedFilter{}, fmt.Errorf("filter: unknown type %q", f.TypeName())
	}
	cfg, err := entry.serialize(f)
	if err != nil {
		return SerializedFilter{}, err
	}
	return SerializedFilter{
		Type:        f.TypeName(),
		Enabled:     meta.Enabled,
		Priority:    meta.Priority,
		Description: meta.Description,
		Version:     meta.Version,
		Config:      cfg,
	}, nil
}

// Deserialize reconstructs a Filter from its serialized envelope. An
// unknown type name is an error; a known type with invalid config
// surfaces that constructor's error.
func (r *Registry) Deserialize(sf SerializedFilter) (Filter, Meta, error) {
	r.mu.RLock()
	entry, ok := r.entries[sf.Type]
	r.mu.RUnlock()
	if !ok {
		return nil, Meta{}, fmt.Errorf("filter: unknown type %q", sf.Type)
	}
	f, err := entry.create(sf.Config)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("filter: invalid config for type %q: %w", sf.Type, err)
	}
	meta := Meta{Enabled: sf.Enabled, Priority: sf.Priority, Description: sf.Description, Version: sf.Version}
	return f, meta, nil
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the lazily-initialized, process-wide Registry with
// every built-in filter type registered.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

type levelConfig struct {
	Min corelog.Level `json:"min"`
	Max corelog.Level `json:"max"`
}

type keywordConfig struct {
	Include       []string `json:"include"`
	Exclude       []string `json:"exclude"`
	CaseSensitive bool     `json:"case_sensitive"`
}

type regexConfig struct {
	Pattern string `json:"pattern"`
}

type rateLimitConfig struct {
	MaxPerSecond float64 `json:"max_per_second"`
	MaxBurst     int     `json:"max_burst"`
}

type threadConfig struct {
	Threads []uint64 `json:"threads"`
	Mode    int      `json:"mode"`
}

func registerBuiltins(r *Registry) {
	r.Register("level",
		func(raw json.RawMessage) (Filter, error) {
			var c levelConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, err
			}
			return NewLevelFilter(c.Min, c.Max), nil
		},
		func(f Filter) (json.RawMessage, error) {
			lf := f.(*LevelFilter)
			return json.Marshal(levelConfig{Min: lf.Min, Max: lf.Max})
		},
	)

	r.Register("keyword",
		func(raw json.RawMessage) (Filter, error) {
			var c keywordConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, err
			}
			return NewKeywordFilter(c.Include, c.Exclude, c.CaseSensitive), nil
		},
		func(f Filter) (json.RawMessage, error) {
			kf := f.(*KeywordFilter)
			return json.Marshal(keywordConfig{Include: kf.Include, Exclude: kf.Exclude, CaseSensitive: kf.CaseSensitive})
		},
	)

	r.Register("regex",
		func(raw json.RawMessage) (Filter, error) {
			var c regexConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, err
			}
			return NewRegexFilter(c.Pattern)
		},
		func(f Filter) (json.RawMessage, error) {
			rf := f.(*RegexFilter)
			return json.Marshal(regexConfig{Pattern: rf.Pattern})
		},
	)

	r.Register("ratelimit",
		func(raw json.RawMessage) (Filter, error) {
			var c rateLimitConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, err
			}
			return NewRateLimitFilter(c.MaxPerSecond, c.MaxBurst), nil
		},
		func(f Filter) (json.RawMessage, error) {
			rlf := f.(*RateLimitFilter)
			return json.Marshal(rateLimitConfig{MaxPerSecond: rlf.MaxPerSecond, MaxBurst: rlf.MaxBurst})
		},
	)

	r.Register("thread",
		func(raw json.RawMessage) (Filter, error) {
			var c threadConfig
			if err := json.Unmarshal(raw, &c); err != nil {
				return nil, err
			}
			return NewThreadFilter(ThreadMode(c.Mode), c.Threads...), nil
		},
		func(f Filter) (json.RawMessage, error) {
			tf := f.(*ThreadFilter)
			ids := make([]uint64, 0, len(tf.Threads))
			for id := range tf.Threads {
				ids = append(ids, id)
			}
			return json.Marshal(threadConfig{Threads: ids, Mode: int(tf.Mode)})
		},
	)
}
