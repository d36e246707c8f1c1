// Package sanitize cleans user supplied labels and code snippets before they
// reach the graph document.
package sanitize

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// MaxLabelSize is the largest accepted node label, in bytes.
	MaxLabelSize = 256
	// DefaultMaxCodeSize is the largest accepted code snippet (64KiB).
	DefaultMaxCodeSize = 64 << 10
	// EnvMaxCodeSize is the environment variable to override the code limit.
	EnvMaxCodeSize = "FLOWCANVAS_MAX_CODE_SIZE"
)

var (
	ErrTooLarge    = errors.New("input exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")
)

// Label validates a node label. Labels are single line: every control
// character, newlines included, is stripped and surrounding spaces trimmed.
func Label(s string) (string, error) {
	if err := check(s, MaxLabelSize); err != nil {
		return "", err
	}
	return strings.TrimSpace(strip(s, func(rune) bool { return false })), nil
}

// Code validates a code snippet. Newline, tab and carriage return are kept;
// other control characters (ESC, NUL, BEL...) are removed.
func Code(s string) (string, error) {
	if err := check(s, maxCodeSize()); err != nil {
		return "", err
	}
	return strip(s, isSafeControl), nil
}

func check(s string, limit int) error {
	// Reject rather than truncate so stored state is deterministic.
	if len(s) > limit {
		return fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(s), limit)
	}
	if !utf8.ValidString(s) {
		return ErrInvalidUTF8
	}
	return nil
}

func strip(s string, keep func(rune) bool) string {
	// Fast path: nothing to remove.
	clean := true
	for _, r := range s {
		if unicode.IsControl(r) && !keep(r) {
			clean = false
			break
		}
	}
	if clean {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) || keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

func maxCodeSize() int {
	if val := os.Getenv(EnvMaxCodeSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxCodeSize
}
