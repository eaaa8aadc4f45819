package dispatch

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultMaxInputSize caps a setMessage value, in bytes.
const DefaultMaxInputSize = 4 << 10

// EnvMaxInputSize names the variable that raises or lowers the cap. Values
// that are not positive integers are ignored.
const EnvMaxInputSize = "REMOTEUI_MAX_INPUT_SIZE"

// ErrInputTooLarge rejects a value over the cap. Oversized values are never
// truncated.
var ErrInputTooLarge = errors.New("input exceeds maximum allowed size")

// ErrInvalidUTF8 rejects a value that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input contains invalid UTF-8 sequences")

// SanitizeInput returns text fit to store in the message: within the size
// cap, valid UTF-8, and free of control runes except tab, newline and
// carriage return.
func SanitizeInput(text string) (string, error) {
	if limit := inputLimit(); len(text) > limit {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrInputTooLarge, len(text), limit)
	}
	if !utf8.ValidString(text) {
		return "", ErrInvalidUTF8
	}
	if strings.IndexFunc(text, dropRune) < 0 {
		return text, nil
	}
	return strings.Map(func(r rune) rune {
		if dropRune(r) {
			return -1
		}
		return r
	}, text), nil
}

func dropRune(r rune) bool {
	switch r {
	case '\t', '\n', '\r':
		return false
	}
	return unicode.IsControl(r)
}

func inputLimit() int {
	n, err := strconv.Atoi(os.Getenv(EnvMaxInputSize))
	if err != nil || n <= 0 {
		return DefaultMaxInputSize
	}
	return n
}
