package runner

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/funnel/pkg/controller"
)

var (
	// DefaultMaxInputSize is 4KB, enough for any typed answer.
	DefaultMaxInputSize = 4096
	// EnvMaxInputSize is the environment variable to override the default
	EnvMaxInputSize = "FUNNEL_MAX_INPUT_SIZE"
)

var (
	ErrInputTooLarge = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8   = errors.New("input contains invalid UTF-8 sequences")
)

// SanitizeInput cleans a typed answer or contact field: it enforces the size limit,
// validates UTF-8 and strips control characters other than whitespace.
func SanitizeInput(input string) (string, error) {
	// 1. Enforce Size Limit
	limit := getMaxInputSize()
	if len(input) > limit {
		// Rejected, not truncated: a truncated answer would be recorded silently.
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(input), limit)
	}

	// 2. Validate UTF-8
	if !utf8.ValidString(input) {
		return "", ErrInvalidUTF8
	}

	// 3. Strip Control Characters
	// Newline, tab and carriage return survive; ESC, NUL, BEL and the rest go.

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range input {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return input, nil
	}

	// Slow path: build clean string
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func getMaxInputSize() int {
	if val := os.Getenv(EnvMaxInputSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxInputSize
}

// SanitizeIntent applies SanitizeInput to the typed text of an intent: a text answer and the contact fields.
func SanitizeIntent(in *controller.Intent) error {
	if in.Answer != nil && !in.Answer.IsRecording() {
		clean, err := SanitizeInput(in.Answer.Text)
		if err != nil {
			return err
		}
		in.Answer.Text = clean
	}
	if in.Contact != nil {
		for _, field := range []*string{&in.Contact.Name, &in.Contact.Email, &in.Contact.Phone} {
			clean, err := SanitizeInput(*field)
			if err != nil {
				return err
			}
			*field = clean
		}
	}
	return nil
}
