package loam

// DefinitionMetadata is the front matter (or JSON/YAML body) of a funnel document.
// Nested sections stay untyped here and are decoded into domain types by the Loader,
// so the same document shape works for every Loam serializer.
type DefinitionMetadata struct {
	ID        string `json:"id" mapstructure:"id"`
	Version   string `json:"version" mapstructure:"version"`
	Title     string `json:"title" mapstructure:"title"`
	Pages     []any  `json:"pages" mapstructure:"pages"`
	Rules     []any  `json:"rules" mapstructure:"rules"`
	Variables []any  `json:"variables" mapstructure:"variables"`
}
