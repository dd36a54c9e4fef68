package model

import (
	"strconv"
	"strings"
)

// Path identifies which pipeline shape a request runs through.
type Path string

const (
	PathSingleStep Path = "single-step"
	PathTwoStep    Path = "two-step"
)

// ToolInvocation is one external command as a discrete argument vector,
// with optional stdin source and stdout redirection target.
type ToolInvocation struct {
	Step   string   `yaml:"step"`
	Argv   []string `yaml:"argv"`
	Stdin  string   `yaml:"stdin,omitempty"`
	Stdout string   `yaml:"stdout"`
}

// Tool returns the executable name (argv[0]).
func (inv ToolInvocation) Tool() string {
	if len(inv.Argv) == 0 {
		return ""
	}
	return inv.Argv[0]
}

// String renders the invocation for logs, quoting tokens that contain
// whitespace or shell metacharacters. It is never passed to a shell.
func (inv ToolInvocation) String() string {
	parts := make([]string, 0, len(inv.Argv)+4)
	for _, a := range inv.Argv {
		parts = append(parts, quoteArg(a))
	}
	if inv.Stdin != "" {
		parts = append(parts, "<", quoteArg(inv.Stdin))
	}
	if inv.Stdout != "" {
		parts = append(parts, ">", quoteArg(inv.Stdout))
	}
	return strings.Join(parts, " ")
}

func quoteArg(s string) string {
	if s == "" || strings.ContainsAny(s, " \t\n\"'\\$`|&;<>()*?![]{}#~") {
		return strconv.Quote(s)
	}
	return s
}
