package runner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/runner"
)

func TestParseAnswer(t *testing.T) {
	choice := domain.Block{ID: "c", Type: domain.BlockMultipleChoice, Properties: map[string]any{
		"options": []any{"red", map[string]any{"value": "gr", "label": "Green"}},
	}}
	multi := domain.Block{ID: "m", Type: domain.BlockMultipleChoice, Properties: map[string]any{
		"options": []any{"a", "b", "c"}, "multiple": true,
	}}
	slider := domain.Block{ID: "s", Type: domain.BlockSlider}
	text := domain.Block{ID: "t", Type: domain.BlockTextInput}

	tests := []struct {
		name    string
		block   domain.Block
		input   string
		want    any
		wantErr bool
	}{
		{"option number", choice, "2", "gr", false},
		{"option label", choice, "green", "gr", false},
		{"option value", choice, " RED ", "red", false},
		{"unknown option", choice, "blue", nil, true},
		{"number out of range", choice, "3", nil, true},
		{"multi select", multi, "1, c,", []any{"a", "c"}, false},
		{"multi select with unknown", multi, "a,z", nil, true},
		{"slider", slider, "4.5", 4.5, false},
		{"slider not a number", slider, "lots", nil, true},
		{"text", text, "  hello  ", "hello", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runner.ParseAnswer(tt.block, tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
