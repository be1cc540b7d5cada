package domain

import (
	"fmt"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// ChoiceOption is one selectable option of a choice block.
type ChoiceOption struct {
	Value string `mapstructure:"value"`
	Label string `mapstructure:"label"`
	Image string `mapstructure:"image"`
}

// ChoiceProperties configures multiple_choice, dropdown and picture_choice blocks.
type ChoiceProperties struct {
	Label    string         `mapstructure:"label"`
	Options  []ChoiceOption `mapstructure:"options"`
	Multiple bool           `mapstructure:"multiple"`
}

// SliderProperties configures slider blocks.
type SliderProperties struct {
	Label string  `mapstructure:"label"`
	Min   float64 `mapstructure:"min"`
	Max   float64 `mapstructure:"max"`
	Step  float64 `mapstructure:"step"`
}

// TextInputProperties configures text_input blocks.
type TextInputProperties struct {
	Label       string `mapstructure:"label"`
	Placeholder string `mapstructure:"placeholder"`
	Multiline   bool   `mapstructure:"multiline"`
}

// ContentProperties configures presentational blocks carrying text (heading, paragraph, html, list).
type ContentProperties struct {
	Text  string   `mapstructure:"text"`
	Items []string `mapstructure:"items"`
	URL   string   `mapstructure:"url"`
}

// DecodeProperties decodes the block's free-form properties into out.
// Options may be given either as plain strings or as {value, label} maps.
func DecodeProperties(b Block, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook:       stringToChoiceOption,
	})
	if err != nil {
		return fmt.Errorf("failed to create properties decoder: %w", err)
	}
	if err := decoder.Decode(b.Properties); err != nil {
		return fmt.Errorf("block %s: invalid properties: %w", b.ID, err)
	}
	return nil
}

// Choice returns the typed choice configuration of a block.
func (b Block) Choice() (ChoiceProperties, error) {
	var props ChoiceProperties
	err := DecodeProperties(b, &props)
	return props, err
}

// Slider returns the typed slider configuration of a block.
func (b Block) Slider() (SliderProperties, error) {
	var props SliderProperties
	err := DecodeProperties(b, &props)
	return props, err
}

// Content returns the typed content of a presentational block.
func (b Block) Content() (ContentProperties, error) {
	var props ContentProperties
	err := DecodeProperties(b, &props)
	return props, err
}

// Label returns the human-readable label of an input block, falling back to its id.
func (b Block) Label() string {
	if label, ok := b.Properties["label"].(string); ok && label != "" {
		return label
	}
	return b.ID
}

func stringToChoiceOption(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(ChoiceOption{}) || from.Kind() != reflect.String {
		return data, nil
	}
	s, _ := data.(string)
	return ChoiceOption{Value: s, Label: s}, nil
}
