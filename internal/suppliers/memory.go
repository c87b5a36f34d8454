package suppliers

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// InMemoryDirectory backs tests and the memory-store mode.
type InMemoryDirectory struct {
	mu        sync.RWMutex
	suppliers map[string]Supplier
}

func NewInMemoryDirectory(seed ...Supplier) *InMemoryDirectory {
	d := &InMemoryDirectory{suppliers: make(map[string]Supplier)}
	for _, s := range seed {
		d.Put(s)
	}
	return d
}

// LoadJSON seeds the directory from a JSON array of suppliers.
func (d *InMemoryDirectory) LoadJSON(raw string) error {
	if raw == "" {
		return nil
	}
	var list []Supplier
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return fmt.Errorf("suppliers: parse seed: %w", err)
	}
	for _, s := range list {
		d.Put(s)
	}
	return nil
}

func (d *InMemoryDirectory) Put(s Supplier) {
	s.Brands = append([]string(nil), s.Brands...)
	d.mu.Lock()
	d.suppliers[s.ID] = s
	d.mu.Unlock()
}

func (d *InMemoryDirectory) Get(_ context.Context, id string) (*Supplier, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	s, ok := d.suppliers[id]
	if !ok {
		return nil, ErrSupplierNotFound
	}
	s.Brands = append([]string(nil), s.Brands...)
	return &s, nil
}
