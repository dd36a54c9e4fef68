package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
)

var _ pflag.Value = (*boolString)(nil)

// boolString is a boolean flag that takes its value as a separate word,
// e.g. "--is-gz false", accepting true/false, yes/no and 1/0.
type boolString bool

func (b *boolString) String() string {
	return strconv.FormatBool(bool(*b))
}

func (b *boolString) Set(s string) error {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		*b = true
	case "false", "f", "no", "n", "0":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	return nil
}

func (b *boolString) Type() string {
	return "bool-string"
}

func choices[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}
