package source

import (
	"fmt"
	"sort"
	"sync"
)

// Manager holds the configured catalogues by id.
type Manager struct {
	mu         sync.RWMutex
	catalogues map[int64]Catalogue
	stubs      map[int64]*StubCatalogue
}

func NewManager(catalogues ...Catalogue) (*Manager, error) {
	m := &Manager{
		catalogues: make(map[int64]Catalogue),
		stubs:      make(map[int64]*StubCatalogue),
	}
	for _, c := range catalogues {
		if err := m.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register adds a catalogue. Ids must be unique.
func (m *Manager) Register(c Catalogue) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.catalogues[c.ID()]; ok {
		return fmt.Errorf("source id %d already registered by %q", c.ID(), existing.Name())
	}
	m.catalogues[c.ID()] = c
	delete(m.stubs, c.ID())
	return nil
}

// Get returns the catalogue for id or ErrSourceNotFound.
func (m *Manager) Get(id int64) (Catalogue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.catalogues[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrSourceNotFound, id)
	}
	return c, nil
}

// GetOrStub returns the catalogue for id, or a stub whose calls fail with ErrStubSource.
func (m *Manager) GetOrStub(id int64) Catalogue {
	if c, err := m.Get(id); err == nil {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.catalogues[id]; ok {
		return c
	}
	stub, ok := m.stubs[id]
	if !ok {
		stub = NewStubCatalogue(id)
		m.stubs[id] = stub
	}
	return stub
}

// Catalogues returns the registered catalogues sorted by name, then id.
func (m *Manager) Catalogues() []Catalogue {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]Catalogue, 0, len(m.catalogues))
	for _, c := range m.catalogues {
		list = append(list, c)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name() != list[j].Name() {
			return list[i].Name() < list[j].Name()
		}
		return list[i].ID() < list[j].ID()
	})
	return list
}

// Stubs returns the stubs handed out so far.
func (m *Manager) Stubs() []Catalogue {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]Catalogue, 0, len(m.stubs))
	for _, s := range m.stubs {
		list = append(list, s)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID() < list[j].ID() })
	return list
}

// Online returns the registered catalogues whose language is in langs. An
// empty langs keeps every catalogue.
func (m *Manager) Online(langs []string) []Catalogue {
	all := m.Catalogues()
	if len(langs) == 0 {
		return all
	}
	enabled := make(map[string]bool, len(langs))
	for _, l := range langs {
		enabled[l] = true
	}

	var list []Catalogue
	for _, c := range all {
		if enabled[c.Lang()] {
			list = append(list, c)
		}
	}
	return list
}
