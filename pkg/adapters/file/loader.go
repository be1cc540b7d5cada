package file

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/funnel/pkg/domain"
)

// Loader implements ports.DefinitionLoader over YAML or JSON files.
// Path may be a single file or a directory of files, one definition each.
// Files are read on every call so edits are picked up without a restart.
type Loader struct {
	Path string
}

// New creates a loader rooted at path.
func New(path string) *Loader {
	return &Loader{Path: path}
}

// GetDefinition finds the definition with the given id and version.
func (l *Loader) GetDefinition(ctx context.Context, funnelID string, version domain.Version) (*domain.Definition, error) {
	if version == "" {
		version = domain.VersionPublished
	}
	defs, err := l.loadAll()
	if err != nil {
		return nil, err
	}
	for _, d := range defs {
		v := d.Version
		if v == "" {
			v = domain.VersionPublished
		}
		if d.ID == funnelID && v == version {
			return d, nil
		}
	}
	return nil, fmt.Errorf("funnel %s (%s) in %s: %w", funnelID, version, l.Path, domain.ErrDefinitionNotFound)
}

// ListDefinitions returns the distinct funnel ids found under Path.
func (l *Loader) ListDefinitions(ctx context.Context) ([]string, error) {
	defs, err := l.loadAll()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var ids []string
	for _, d := range defs {
		if !seen[d.ID] {
			seen[d.ID] = true
			ids = append(ids, d.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *Loader) loadAll() ([]*domain.Definition, error) {
	info, err := os.Stat(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", l.Path, err)
	}
	if !info.IsDir() {
		def, err := ReadDefinition(l.Path)
		if err != nil {
			return nil, err
		}
		return []*domain.Definition{def}, nil
	}

	entries, err := os.ReadDir(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.Path, err)
	}
	var defs []*domain.Definition
	for _, entry := range entries {
		if entry.IsDir() || !isDefinitionFile(entry.Name()) {
			continue
		}
		def, err := ReadDefinition(filepath.Join(l.Path, entry.Name()))
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// ReadDefinition parses one definition file. JSON is recognized by extension;
// anything else is parsed as YAML.
func ReadDefinition(path string) (*domain.Definition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definition: %w", err)
	}
	def, err := Parse(raw, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if def.ID == "" {
		def.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return def, nil
}

// Parse decodes a definition document. ext selects the format (".json" or YAML otherwise).
// Unknown fields are rejected so typos in rule or block keys surface at load time.
func Parse(raw []byte, ext string) (*domain.Definition, error) {
	var def domain.Definition
	if strings.EqualFold(ext, ".json") {
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&def); err != nil {
			return nil, fmt.Errorf("invalid JSON definition: %w", err)
		}
		return &def, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("invalid YAML definition: %w", err)
	}
	return &def, nil
}

func isDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}
