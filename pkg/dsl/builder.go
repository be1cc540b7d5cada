package dsl

import (
	"fmt"

	"github.com/aretw0/funnel/pkg/adapters/memory"
	"github.com/aretw0/funnel/pkg/domain"
)

// Builder assembles a funnel definition. Pages keep the order in which they were first added.
type Builder struct {
	def   domain.Definition
	pages map[string]*PageBuilder
	order []string
}

// New creates a builder for the funnel id.
func New(id string) *Builder {
	return &Builder{
		def:   domain.Definition{ID: id},
		pages: make(map[string]*PageBuilder),
	}
}

// Title sets the funnel title.
func (b *Builder) Title(title string) *Builder {
	b.def.Title = title
	return b
}

// Description sets the markdown intro shown before the first page.
func (b *Builder) Description(md string) *Builder {
	b.def.Description = md
	return b
}

// Version sets the revision the definition is served as.
func (b *Builder) Version(v domain.Version) *Builder {
	b.def.Version = v
	return b
}

// Number declares a number variable.
func (b *Builder) Number(name string, def float64) *Builder {
	return b.variable(name, domain.VariableNumber, def)
}

// String declares a string variable.
func (b *Builder) String(name, def string) *Builder {
	return b.variable(name, domain.VariableString, def)
}

// Bool declares a boolean variable.
func (b *Builder) Bool(name string, def bool) *Builder {
	return b.variable(name, domain.VariableBoolean, def)
}

func (b *Builder) variable(name string, t domain.VariableType, def any) *Builder {
	b.def.Variables = append(b.def.Variables, domain.Variable{Name: name, Type: t, Default: def})
	return b
}

// Page adds a page, or returns the existing builder for id.
func (b *Builder) Page(id string) *PageBuilder {
	if pb, ok := b.pages[id]; ok {
		return pb
	}
	pb := &PageBuilder{page: domain.Page{ID: id}, builder: b}
	b.pages[id] = pb
	b.order = append(b.order, id)
	return pb
}

// Definition returns the assembled definition.
func (b *Builder) Definition() *domain.Definition {
	def := b.def
	def.Pages = make([]domain.Page, 0, len(b.order))
	for _, id := range b.order {
		def.Pages = append(def.Pages, b.pages[id].page)
	}
	def.Rules = append([]domain.Rule{}, b.def.Rules...)
	def.Variables = append([]domain.Variable{}, b.def.Variables...)
	return &def
}

// Build returns a memory loader serving the definition.
func (b *Builder) Build() (*memory.Loader, error) {
	loader, err := memory.NewFromDefinitions(b.Definition())
	if err != nil {
		return nil, fmt.Errorf("failed to build memory loader: %w", err)
	}
	return loader, nil
}
