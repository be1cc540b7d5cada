package dsl

import "github.com/aretw0/funnel/pkg/domain"

// PageBuilder provides a fluent API for configuring a page and its rules.
type PageBuilder struct {
	page    domain.Page
	builder *Builder
}

// Title sets the page title.
func (p *PageBuilder) Title(title string) *PageBuilder {
	p.page.Title = title
	return p
}

// Button sets the label of the page's submit button.
func (p *PageBuilder) Button(label string) *PageBuilder {
	p.page.Properties.ButtonLabel = label
	return p
}

// AutoAdvance submits the page as soon as its input is answered.
func (p *PageBuilder) AutoAdvance() *PageBuilder {
	p.page.Properties.AutoAdvance = true
	return p
}

// Heading adds a heading block.
func (p *PageBuilder) Heading(id, text string) *PageBuilder {
	return p.Block(id, domain.BlockHeading, map[string]any{"text": text})
}

// Paragraph adds a markdown paragraph block.
func (p *PageBuilder) Paragraph(id, text string) *PageBuilder {
	return p.Block(id, domain.BlockParagraph, map[string]any{"text": text})
}

// Text adds a text input.
func (p *PageBuilder) Text(id, label string, validations ...domain.Validation) *PageBuilder {
	return p.Block(id, domain.BlockTextInput, map[string]any{"label": label}, validations...)
}

// Choice adds a single-select multiple choice block.
func (p *PageBuilder) Choice(id, label string, options ...string) *PageBuilder {
	return p.Block(id, domain.BlockMultipleChoice, map[string]any{"label": label, "options": toAny(options)})
}

// MultiChoice adds a multi-select multiple choice block.
func (p *PageBuilder) MultiChoice(id, label string, options ...string) *PageBuilder {
	return p.Block(id, domain.BlockMultipleChoice, map[string]any{"label": label, "options": toAny(options), "multiple": true})
}

// Slider adds a numeric slider.
func (p *PageBuilder) Slider(id, label string, lo, hi float64) *PageBuilder {
	return p.Block(id, domain.BlockSlider, map[string]any{"label": label, "min": lo, "max": hi})
}

// Block adds a block of any type.
func (p *PageBuilder) Block(id string, t domain.BlockType, props map[string]any, validations ...domain.Validation) *PageBuilder {
	p.page.Blocks = append(p.page.Blocks, domain.Block{ID: id, Type: t, Properties: props, Validations: validations})
	return p
}

// When attaches a rule to this page. A nil condition always matches.
func (p *PageBuilder) When(ruleID string, cond *domain.Condition, actions ...domain.Action) *PageBuilder {
	p.builder.def.Rules = append(p.builder.def.Rules, domain.Rule{
		ID:        ruleID,
		PageID:    p.page.ID,
		Condition: cond,
		Actions:   actions,
	})
	return p
}

// Page continues with another page of the same funnel.
func (p *PageBuilder) Page(id string) *PageBuilder {
	return p.builder.Page(id)
}

// Done returns to the funnel builder.
func (p *PageBuilder) Done() *Builder {
	return p.builder
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// Required is a shorthand for the required validation.
func Required() domain.Validation { return domain.Validation{Type: domain.ValidationRequired} }

// Email is a shorthand for the email validation.
func Email() domain.Validation { return domain.Validation{Type: domain.ValidationEmail} }
