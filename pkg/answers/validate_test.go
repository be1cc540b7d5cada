package answers_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/funnel/pkg/answers"
	"github.com/aretw0/funnel/pkg/domain"
)

func TestValidator_Block(t *testing.T) {
	v := answers.New()

	email := domain.Block{
		ID:   "email",
		Type: domain.BlockTextInput,
		Validations: []domain.Validation{
			{Type: domain.ValidationRequired},
			{Type: domain.ValidationEmail, Message: "Please enter a valid email"},
		},
	}
	name := domain.Block{
		ID:   "name",
		Type: domain.BlockTextInput,
		Validations: []domain.Validation{
			{Type: domain.ValidationMinLength, Value: 2},
			{Type: domain.ValidationMaxLength, Value: 5},
			{Type: domain.ValidationPattern, Value: "^[A-Za-z]+$"},
		},
	}
	nickname := domain.Block{
		ID:          "nickname",
		Type:        domain.BlockTextInput,
		Validations: []domain.Validation{{Type: domain.ValidationMaxLength, Value: 3}},
	}
	age := domain.Block{
		ID:          "age",
		Type:        domain.BlockTextInput,
		Validations: []domain.Validation{{Type: domain.ValidationMin, Value: 18}, {Type: domain.ValidationMax, Value: 99.5}},
	}
	color := domain.Block{
		ID:         "color",
		Type:       domain.BlockMultipleChoice,
		Properties: map[string]any{"options": []any{"red", map[string]any{"value": "blue", "label": "Blue"}}},
	}
	tags := domain.Block{
		ID:         "tags",
		Type:       domain.BlockMultipleChoice,
		Properties: map[string]any{"options": []any{"a", "b", "c"}, "multiple": true},
	}
	rating := domain.Block{
		ID:         "rating",
		Type:       domain.BlockSlider,
		Properties: map[string]any{"min": 1, "max": 10},
	}

	tests := []struct {
		name  string
		block domain.Block
		value any
		rules []domain.ValidationType
	}{
		{"required missing", email, nil, []domain.ValidationType{domain.ValidationRequired}},
		{"required blank", email, "", []domain.ValidationType{domain.ValidationRequired}},
		{"invalid email", email, "not-an-email", []domain.ValidationType{domain.ValidationEmail}},
		{"valid email", email, "ada@example.com", nil},
		{"too short", name, "A", []domain.ValidationType{domain.ValidationMinLength}},
		{"too long and bad chars", name, "Ada-Lovelace", []domain.ValidationType{domain.ValidationMaxLength, domain.ValidationPattern}},
		{"multibyte length counts runes", nickname, "Zoë", nil},
		{"multibyte too long", nickname, "Zoëy", []domain.ValidationType{domain.ValidationMaxLength}},
		{"optional empty skips rules", name, "", nil},
		{"under min", age, 17, []domain.ValidationType{domain.ValidationMin}},
		{"over max", age, 100, []domain.ValidationType{domain.ValidationMax}},
		{"not a number", age, "old", []domain.ValidationType{domain.ValidationMin, domain.ValidationMax}},
		{"in range", age, 42.0, nil},
		{"known option", color, "blue", nil},
		{"unknown option", color, "green", []domain.ValidationType{""}},
		{"single choice with many", color, []any{"red", "blue"}, []domain.ValidationType{""}},
		{"multi choice", tags, []any{"a", "c"}, nil},
		{"slider in range", rating, 7, nil},
		{"slider out of range", rating, 11, []domain.ValidationType{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.Block(tt.block, tt.value)
			var got []domain.ValidationType
			for _, e := range errs {
				got = append(got, e.Rule)
			}
			assert.Equal(t, tt.rules, got)
		})
	}
}

func TestValidator_CustomMessage(t *testing.T) {
	v := answers.New()
	b := domain.Block{
		ID:          "email",
		Type:        domain.BlockTextInput,
		Validations: []domain.Validation{{Type: domain.ValidationEmail, Message: "Please enter a valid email"}},
	}

	errs := v.Block(b, "nope")
	require.Len(t, errs, 1)
	assert.Equal(t, "Please enter a valid email", errs[0].Message)
}

func TestValidator_Page(t *testing.T) {
	v := answers.New()
	blocks := []domain.Block{
		{ID: "title", Type: domain.BlockHeading, Validations: []domain.Validation{{Type: domain.ValidationRequired}}},
		{ID: "a", Type: domain.BlockTextInput, Validations: []domain.Validation{{Type: domain.ValidationRequired}}},
		{ID: "b", Type: domain.BlockTextInput, Validations: []domain.Validation{{Type: domain.ValidationRequired}}},
	}

	err := v.Validate(blocks, map[string]any{"a": "filled"})
	require.Error(t, err)

	verrs := answers.Errors(err)
	require.Len(t, verrs, 1)
	assert.Equal(t, "b", verrs[0].BlockID)

	var aggr *answers.AggregateError
	require.ErrorAs(t, err, &aggr)
	assert.Equal(t, map[string][]string{"b": {"b is required"}}, aggr.ByBlock())

	assert.NoError(t, v.Validate(blocks, map[string]any{"a": "x", "b": "y"}))
}
