// Package answers checks answers against the constraints declared on input blocks.
//
// The engine itself never rejects an answer: validation belongs to the presentation
// layer, which calls Validate before submitting a page.
package answers

import (
	"fmt"
	"regexp"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/aretw0/funnel/pkg/domain"
	"github.com/aretw0/funnel/pkg/schema"
)

// Validator checks answers. It is safe for concurrent use and caches compiled patterns.
type Validator struct {
	validate *validator.Validate

	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// New creates a Validator.
func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
		patterns: make(map[string]*regexp.Regexp),
	}
}

// Validate checks the answers for the given blocks (usually the visible blocks of a page).
// Presentational blocks are skipped. It returns an *AggregateError or nil.
func (v *Validator) Validate(blocks []domain.Block, answers map[string]any) error {
	var errs []*ValidationError
	for _, b := range blocks {
		if !b.Type.IsInput() {
			continue
		}
		errs = append(errs, v.Block(b, answers[b.ID])...)
	}
	if len(errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: errs}
}

// Block checks one answer against the block's validations and its type-specific properties.
// Constraints other than required are skipped for empty answers.
func (v *Validator) Block(b domain.Block, value any) []*ValidationError {
	var errs []*ValidationError
	fail := func(rule domain.ValidationType, custom, format string, args ...any) {
		msg := custom
		if msg == "" {
			msg = fmt.Sprintf(format, args...)
		}
		errs = append(errs, &ValidationError{BlockID: b.ID, Rule: rule, Message: msg})
	}

	empty := isEmpty(value)
	for _, rule := range b.Validations {
		if rule.Type == domain.ValidationRequired {
			if empty {
				fail(rule.Type, rule.Message, "%s is required", b.Label())
			}
			continue
		}
		if empty {
			continue
		}
		if ok, msg := v.check(rule, value); !ok {
			fail(rule.Type, rule.Message, "%s", msg)
		}
	}
	if empty {
		return errs
	}

	switch b.Type {
	case domain.BlockMultipleChoice, domain.BlockDropdown, domain.BlockPictureChoice:
		if msg := checkChoice(b, value); msg != "" {
			fail("", "", "%s", msg)
		}
	case domain.BlockSlider:
		if msg := checkSlider(b, value); msg != "" {
			fail("", "", "%s", msg)
		}
	}
	return errs
}

func (v *Validator) check(rule domain.Validation, value any) (bool, string) {
	switch rule.Type {
	case domain.ValidationEmail:
		s, ok := value.(string)
		if !ok || v.validate.Var(s, "email") != nil {
			return false, "must be a valid email address"
		}
	case domain.ValidationMinLength, domain.ValidationMaxLength:
		limit, ok := schema.NormalizeNumber(rule.Value)
		if !ok {
			return false, fmt.Sprintf("invalid %s limit %v", rule.Type, rule.Value)
		}
		n, ok := length(value)
		if !ok {
			return false, "must be text or a list"
		}
		if rule.Type == domain.ValidationMinLength && float64(n) < limit {
			return false, fmt.Sprintf("must have at least %v characters", limit)
		}
		if rule.Type == domain.ValidationMaxLength && float64(n) > limit {
			return false, fmt.Sprintf("must have at most %v characters", limit)
		}
	case domain.ValidationMin, domain.ValidationMax:
		limit, ok := schema.NormalizeNumber(rule.Value)
		if !ok {
			return false, fmt.Sprintf("invalid %s limit %v", rule.Type, rule.Value)
		}
		n, ok := schema.NormalizeNumber(value)
		if !ok {
			return false, "must be a number"
		}
		if rule.Type == domain.ValidationMin && n < limit {
			return false, fmt.Sprintf("must be at least %v", limit)
		}
		if rule.Type == domain.ValidationMax && n > limit {
			return false, fmt.Sprintf("must be at most %v", limit)
		}
	case domain.ValidationPattern:
		expr, _ := rule.Value.(string)
		re, err := v.pattern(expr)
		if err != nil {
			return false, fmt.Sprintf("invalid pattern %q", expr)
		}
		s, ok := value.(string)
		if !ok || !re.MatchString(s) {
			return false, "has an invalid format"
		}
	default:
		return false, fmt.Sprintf("unknown validation %q", rule.Type)
	}
	return true, ""
}

func (v *Validator) pattern(expr string) (*regexp.Regexp, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if re, ok := v.patterns[expr]; ok {
		return re, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	v.patterns[expr] = re
	return re, nil
}

func checkChoice(b domain.Block, value any) string {
	props, err := b.Choice()
	if err != nil || len(props.Options) == 0 {
		return ""
	}
	allowed := make(map[string]bool, len(props.Options))
	for _, o := range props.Options {
		allowed[o.Value] = true
	}

	var picked []any
	switch x := value.(type) {
	case []any:
		picked = x
	case []string:
		for _, s := range x {
			picked = append(picked, s)
		}
	default:
		picked = []any{value}
	}
	if len(picked) > 1 && !props.Multiple {
		return "only one option may be selected"
	}
	for _, p := range picked {
		s, ok := p.(string)
		if !ok || !allowed[s] {
			return fmt.Sprintf("%v is not one of the options", p)
		}
	}
	return ""
}

func checkSlider(b domain.Block, value any) string {
	n, ok := schema.NormalizeNumber(value)
	if !ok {
		return "must be a number"
	}
	props, err := b.Slider()
	if err != nil || props.Max <= props.Min {
		return ""
	}
	if n < props.Min || n > props.Max {
		return fmt.Sprintf("must be between %v and %v", props.Min, props.Max)
	}
	return ""
}

func length(value any) (int, bool) {
	switch x := value.(type) {
	case string:
		return utf8.RuneCountInString(x), true
	case []any:
		return len(x), true
	case []string:
		return len(x), true
	}
	return 0, false
}

func isEmpty(value any) bool {
	switch x := value.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	}
	return false
}
