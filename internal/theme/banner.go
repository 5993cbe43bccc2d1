// Package theme renders the CLI banner.
package theme

import (
	"fmt"
	"io"
	"os"
)

const (
	cyan    = "\033[36m"
	magenta = "\033[35m"
	reset   = "\033[0m"
)

// Banner returns the spreadscope banner. color=false strips the ANSI codes.
func Banner(color bool) string {
	paint := func(c, s string) string {
		if !color {
			return s
		}
		return c + s + reset
	}
	return "" +
		paint(magenta, "  SPREADSCOPE") + "\n" +
		paint(cyan, "      o\n") +
		paint(cyan, "     /|\\\n") +
		paint(cyan, "    o o o      origin -> spreaders -> endpoints\n") +
		paint(cyan, "   /| | |\\\n") +
		"  propagation, bots, coordination and anomalies for X cascades\n"
}

// PrintBanner writes the colored banner to w, or stdout when w is nil.
func PrintBanner(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprint(w, Banner(true))
}
