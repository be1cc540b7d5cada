package runner

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/funnel/pkg/domain"
)

// ParseAnswer converts a typed line into the value stored for block.
// Choices accept an option value or its 1-based number; multi-select takes a comma separated list.
func ParseAnswer(block domain.Block, text string) (any, error) {
	text = strings.TrimSpace(text)
	switch block.Type {
	case domain.BlockMultipleChoice, domain.BlockDropdown, domain.BlockPictureChoice:
		props, err := block.Choice()
		if err != nil {
			return nil, err
		}
		if !props.Multiple {
			return pickOption(props.Options, text)
		}
		var picked []any
		for _, part := range strings.Split(text, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			v, err := pickOption(props.Options, part)
			if err != nil {
				return nil, err
			}
			picked = append(picked, v)
		}
		return picked, nil

	case domain.BlockSlider:
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", text)
		}
		return n, nil
	}
	return text, nil
}

func pickOption(options []domain.ChoiceOption, text string) (any, error) {
	text = strings.TrimSpace(text)
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(options) {
		return options[n-1].Value, nil
	}
	for _, o := range options {
		if strings.EqualFold(o.Value, text) || strings.EqualFold(o.Label, text) {
			return o.Value, nil
		}
	}
	if len(options) == 0 {
		return text, nil
	}
	return nil, fmt.Errorf("%q is not one of the options", text)
}
