package domain

// BlockType is the closed set of block kinds a page can hold.
type BlockType string

// Input blocks produce answer values.
const (
	BlockTextInput      BlockType = "text_input"
	BlockMultipleChoice BlockType = "multiple_choice"
	BlockDropdown       BlockType = "dropdown"
	BlockSlider         BlockType = "slider"
	BlockPictureChoice  BlockType = "picture_choice"
)

// Presentational blocks never produce answers.
const (
	BlockHeading   BlockType = "heading"
	BlockParagraph BlockType = "paragraph"
	BlockImage     BlockType = "image"
	BlockGauge     BlockType = "gauge"
	BlockList      BlockType = "list"
	BlockLoader    BlockType = "loader"
	BlockSpacer    BlockType = "spacer"
	BlockHTML      BlockType = "html"
)

// IsInput reports whether blocks of this type collect an answer.
func (t BlockType) IsInput() bool {
	switch t {
	case BlockTextInput, BlockMultipleChoice, BlockDropdown, BlockSlider, BlockPictureChoice:
		return true
	default:
		return false
	}
}

// IsKnown reports whether the type belongs to the supported set.
func (t BlockType) IsKnown() bool {
	switch t {
	case BlockTextInput, BlockMultipleChoice, BlockDropdown, BlockSlider, BlockPictureChoice,
		BlockHeading, BlockParagraph, BlockImage, BlockGauge, BlockList, BlockLoader, BlockSpacer, BlockHTML:
		return true
	default:
		return false
	}
}

// ValidationType names a field-level constraint on an input block.
type ValidationType string

const (
	ValidationRequired  ValidationType = "required"
	ValidationEmail     ValidationType = "email"
	ValidationMinLength ValidationType = "min_length"
	ValidationMaxLength ValidationType = "max_length"
	ValidationMin       ValidationType = "min"
	ValidationMax       ValidationType = "max"
	ValidationPattern   ValidationType = "pattern"
)

// Validation is a single constraint attached to a block.
type Validation struct {
	Type    ValidationType `json:"type" yaml:"type" mapstructure:"type" validate:"required"`
	Value   any            `json:"value,omitempty" yaml:"value,omitempty" mapstructure:"value"`
	Message string         `json:"message,omitempty" yaml:"message,omitempty" mapstructure:"message"`
}

// Block is a single question or content unit within a Page.
type Block struct {
	ID   string    `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Type BlockType `json:"type" yaml:"type" mapstructure:"type" validate:"required"`

	// Properties holds type-specific configuration (options, ranges, markdown...).
	// Use DecodeProperties to obtain a typed view.
	Properties map[string]any `json:"properties,omitempty" yaml:"properties,omitempty" mapstructure:"properties"`

	Validations []Validation `json:"validations,omitempty" yaml:"validations,omitempty" mapstructure:"validations" validate:"dive"`
}

// PageProperties configures the page's button behavior.
type PageProperties struct {
	// AutoAdvance submits the page as soon as its single input is answered.
	AutoAdvance bool   `json:"auto_advance,omitempty" yaml:"auto_advance,omitempty" mapstructure:"auto_advance"`
	ButtonLabel string `json:"button_label,omitempty" yaml:"button_label,omitempty" mapstructure:"button_label"`
}

// Page is an ordered step in a funnel.
type Page struct {
	ID         string         `json:"id" yaml:"id" mapstructure:"id" validate:"required"`
	Title      string         `json:"title,omitempty" yaml:"title,omitempty" mapstructure:"title"`
	Blocks     []Block        `json:"blocks" yaml:"blocks" mapstructure:"blocks" validate:"dive"`
	Properties PageProperties `json:"properties,omitempty" yaml:"properties,omitempty" mapstructure:"properties"`
}

// InputBlock returns the input block with the given id, if the page holds one.
func (p Page) InputBlock(id string) (Block, bool) {
	for _, b := range p.Blocks {
		if b.ID == id && b.Type.IsInput() {
			return b, true
		}
	}
	return Block{}, false
}
