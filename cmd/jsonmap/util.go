package main

import (
	"fmt"
	"io"
	"strings"
)

// printIndented writes the formatted message to w, with every line of
// it indented by depth levels.
func printIndented(w io.Writer, depth int, format string, args ...any) {
	msg := strings.TrimSuffix(fmt.Sprintf(format, args...), "\n")
	prefix := strings.Repeat("  ", depth)
	for _, line := range strings.Split(msg, "\n") {
		fmt.Fprintln(w, prefix+line)
	}
}
