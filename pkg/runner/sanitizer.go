package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize bounds one answer, in bytes. EnvMaxInputSize overrides it.
const (
	DefaultMaxInputSize = 4096
	EnvMaxInputSize     = "FUNNEL_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("answer too large")
	ErrInvalidUTF8   = errors.New("answer is not valid UTF-8")
)

// SanitizeInput cleans one free-text answer. Control characters other than
// newline, tab and carriage return are dropped so answers cannot carry terminal escapes.
func SanitizeInput(input string) (string, error) {
	if limit := inputLimit(); len(input) > limit {
		return "", fmt.Errorf("%w: %d bytes, limit %d", ErrInputTooLarge, len(input), limit)
	}

	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); {
		r, size := utf8.DecodeRuneInString(input[i:])
		if r == utf8.RuneError && size <= 1 {
			return "", fmt.Errorf("%w: byte %d", ErrInvalidUTF8, i)
		}
		i += size
		if unicode.IsControl(r) && r != '\n' && r != '\t' && r != '\r' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// SanitizeAnswers cleans every string answer, including the options of a multi-select,
// and returns a new map. The first rejected answer aborts with its block ID.
func SanitizeAnswers(answers map[string]any) (map[string]any, error) {
	clean := make(map[string]any, len(answers))
	for blockID, v := range answers {
		switch val := v.(type) {
		case string:
			s, err := SanitizeInput(val)
			if err != nil {
				return nil, fmt.Errorf("answer %s: %w", blockID, err)
			}
			clean[blockID] = s
		case []any:
			items := make([]any, len(val))
			for i, item := range val {
				items[i] = item
				if str, ok := item.(string); ok {
					s, err := SanitizeInput(str)
					if err != nil {
						return nil, fmt.Errorf("answer %s[%d]: %w", blockID, i, err)
					}
					items[i] = s
				}
			}
			clean[blockID] = items
		default:
			clean[blockID] = v
		}
	}
	return clean, nil
}

func inputLimit() int {
	if n, err := strconv.Atoi(os.Getenv(EnvMaxInputSize)); err == nil && n > 0 {
		return n
	}
	return DefaultMaxInputSize
}
