package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/funnel/pkg/domain"
)

// Loader implements ports.DefinitionLoader using an in-memory map.
// Definitions are kept serialized so every caller gets its own copy.
type Loader struct {
	mu          sync.RWMutex
	definitions map[string][]byte
}

// NewLoader creates an empty loader.
func NewLoader() *Loader {
	return &Loader{definitions: make(map[string][]byte)}
}

// NewFromDefinitions creates a loader holding the given definitions.
// This handles serialization automatically, improving DX for tests.
func NewFromDefinitions(defs ...*domain.Definition) (*Loader, error) {
	l := NewLoader()
	for _, d := range defs {
		if err := l.Put(d); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Put adds or replaces a definition. An empty version is stored as published.
func (l *Loader) Put(def *domain.Definition) error {
	if def == nil || def.ID == "" {
		return fmt.Errorf("definition missing ID")
	}
	raw, err := json.Marshal(def)
	if err != nil {
		return fmt.Errorf("failed to marshal definition %s: %w", def.ID, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.definitions[key(def.ID, def.Version)] = raw
	return nil
}

// GetDefinition returns a copy of the stored definition.
func (l *Loader) GetDefinition(ctx context.Context, funnelID string, version domain.Version) (*domain.Definition, error) {
	l.mu.RLock()
	raw, ok := l.definitions[key(funnelID, version)]
	l.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("funnel %s (%s): %w", funnelID, versionOrDefault(version), domain.ErrDefinitionNotFound)
	}

	var def domain.Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("failed to decode definition %s: %w", funnelID, err)
	}
	return &def, nil
}

// ListDefinitions returns all funnel ids in lexical order.
func (l *Loader) ListDefinitions(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	seen := make(map[string]bool)
	var ids []string
	for k := range l.definitions {
		var d struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(l.definitions[k], &d); err == nil && !seen[d.ID] {
			seen[d.ID] = true
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func key(funnelID string, version domain.Version) string {
	return funnelID + "@" + string(versionOrDefault(version))
}

func versionOrDefault(v domain.Version) domain.Version {
	if v == "" {
		return domain.VersionPublished
	}
	return v
}
