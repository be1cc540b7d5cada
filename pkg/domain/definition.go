package domain

// Definition is a complete funnel: its ordered pages, rules and variable declarations.
// The engine treats it as immutable for the lifetime of a session.
type Definition struct {
	ID          string     `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Version     Version    `json:"version,omitempty" yaml:"version,omitempty" mapstructure:"version"`
	Title       string     `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	// Description is markdown shown before the first page by interactive runners.
	Description string     `json:"description,omitempty" yaml:"description,omitempty" mapstructure:"description"`
	Pages       []Page     `json:"pages" yaml:"pages" mapstructure:"pages" validate:"min=1,dive"`
	Rules       []Rule     `json:"rules,omitempty" yaml:"rules,omitempty" mapstructure:"rules" validate:"dive"`
	Variables   []Variable `json:"variables,omitempty" yaml:"variables,omitempty" mapstructure:"variables" validate:"dive"`
}

// Page returns the page with the given id.
func (d *Definition) Page(id string) (Page, bool) {
	for _, p := range d.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return Page{}, false
}

// PageIndex returns the position of a page, or -1.
func (d *Definition) PageIndex(id string) int {
	for i, p := range d.Pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Block looks up a block across all pages and returns it with its page id.
func (d *Definition) Block(id string) (Block, string, bool) {
	for _, p := range d.Pages {
		for _, b := range p.Blocks {
			if b.ID == id {
				return b, p.ID, true
			}
		}
	}
	return Block{}, "", false
}
