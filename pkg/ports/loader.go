package ports

import (
	"context"

	"github.com/aretw0/funnel/pkg/domain"
)

// DefinitionLoader defines how the engine retrieves funnel definitions.
// This allows the storage layer (Loam, files, memory) to be decoupled.
type DefinitionLoader interface {
	// GetDefinition returns the definition of funnelID at the given version.
	// An empty version means published.
	// Returns domain.ErrDefinitionNotFound when nothing matches.
	GetDefinition(ctx context.Context, funnelID string, version domain.Version) (*domain.Definition, error)

	// ListDefinitions returns the ids of every available funnel.
	// This is used by tooling (e.g. 'funnel validate' and 'funnel graph').
	ListDefinitions(ctx context.Context) ([]string, error)
}
