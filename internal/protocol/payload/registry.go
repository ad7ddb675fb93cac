package payload

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrDuplicateType = errors.New("payload: type already registered")
	ErrTypeMismatch  = errors.New("payload: factory type id mismatch")
)

// Decodable is a freshly allocated record ready to be filled from bytes.
type Decodable interface {
	Payload
	Decoder
}

// Entry describes one registered payload kind.
type Entry struct {
	ID   uint8
	Name string
	New  func() Decodable
}

// Registry maps header payload_type bytes to record constructors. The codec
// never consults it; it is dispatch for the layer that consumes frames.
type Registry struct {
	mu      sync.RWMutex
	entries map[uint8]Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[uint8]Entry{}}
}

func (r *Registry) Register(id uint8, name string, factory func() Decodable) error {
	if factory == nil {
		return fmt.Errorf("payload: nil factory for 0x%02x", id)
	}
	if got := factory().TypeID(); got != id {
		return fmt.Errorf("%w: registered 0x%02x, record reports 0x%02x", ErrTypeMismatch, id, got)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entries[id]; ok {
		return fmt.Errorf("%w: 0x%02x (%s)", ErrDuplicateType, id, existing.Name)
	}
	r.entries[id] = Entry{ID: id, Name: name, New: factory}
	return nil
}

func (r *Registry) Lookup(id uint8) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	return e, ok
}

// Name returns the registered name or a hex placeholder.
func (r *Registry) Name(id uint8) string {
	if e, ok := r.Lookup(id); ok {
		return e.Name
	}
	return fmt.Sprintf("vendor(0x%02x)", id)
}

// Decode builds the registered record for id from data. Unregistered ids
// come back as a Raw copy of data.
func (r *Registry) Decode(id uint8, data []byte) (Payload, error) {
	e, ok := r.Lookup(id)
	if !ok {
		raw := &Raw{ID: id}
		if err := raw.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return raw, nil
	}
	rec := e.New()
	if err := rec.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("payload %s: %w", e.Name, err)
	}
	return rec, nil
}

// All returns the registered entries ordered by id.
func (r *Registry) All() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
