package loam

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/funnel/pkg/domain"
)

// DraftsDir holds draft versions; "drafts/quiz" is the draft of "quiz".
const DraftsDir = "drafts"

// Loader adapts a Loam repository to the DefinitionLoader interface.
// Each document is one funnel. The markdown body, if any, becomes the definition description.
type Loader struct {
	Repo *loam.TypedRepository[DefinitionMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[DefinitionMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// GetDefinition loads and decodes a funnel document.
func (l *Loader) GetDefinition(ctx context.Context, funnelID string, version domain.Version) (*domain.Definition, error) {
	docID := funnelID
	if version == domain.VersionDraft {
		docID = path.Join(DraftsDir, funnelID)
	}

	// Loam resolves "quiz" to quiz.md, quiz.json, ...
	doc, err := l.Repo.Get(ctx, docID)
	if err != nil {
		return nil, fmt.Errorf("loam get %s: %w: %v", docID, domain.ErrDefinitionNotFound, err)
	}

	def, err := decodeDefinition(doc.Data, strings.TrimSpace(doc.Content))
	if err != nil {
		return nil, fmt.Errorf("funnel %s: %w", docID, err)
	}
	if def.ID == "" {
		def.ID = funnelID
	}
	if def.Version == "" {
		def.Version = version
	}
	return def, nil
}

// ListDefinitions lists published funnels. Drafts share the id of their published funnel.
func (l *Loader) ListDefinitions(ctx context.Context) ([]string, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		docID := trimExtension(doc.ID)
		if strings.HasPrefix(docID, DraftsDir+"/") || inHiddenDir(docID) {
			continue
		}
		id := doc.Data.ID
		if id == "" {
			id = docID
		}

		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: funnel '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func decodeDefinition(meta DefinitionMetadata, content string) (*domain.Definition, error) {
	def := &domain.Definition{
		ID:          meta.ID,
		Version:     domain.Version(meta.Version),
		Title:       meta.Title,
		Description: content,
	}

	sections := []struct {
		name string
		in   []any
		out  any
	}{
		{"pages", meta.Pages, &def.Pages},
		{"rules", meta.Rules, &def.Rules},
		{"variables", meta.Variables, &def.Variables},
	}
	for _, s := range sections {
		if len(s.in) == 0 {
			continue
		}
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:      s.out,
			ErrorUnused: true,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(s.in); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", s.name, err)
		}
	}
	return def, nil
}

// inHiddenDir reports whether a document lives under a dot directory, such as the
// .funnel/sessions store the CLI keeps next to the definitions.
func inHiddenDir(docID string) bool {
	for _, seg := range strings.Split(path.Dir(docID), "/") {
		if strings.HasPrefix(seg, ".") && seg != "." {
			return true
		}
	}
	return false
}

func trimExtension(id string) string {
	return filepath.ToSlash(strings.TrimSuffix(id, filepath.Ext(id)))
}
