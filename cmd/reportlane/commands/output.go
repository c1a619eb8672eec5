package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// colorEnabled reports whether w is a terminal that should get ANSI colors.
func colorEnabled(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func paint(w io.Writer, c *color.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if colorEnabled(w) {
		c.EnableColor()
		msg = c.Sprint(msg)
	}
	fmt.Fprint(w, msg) //nolint:errcheck // CLI output
}

var (
	warnColor = color.New(color.FgYellow, color.Bold)
	okColor   = color.New(color.FgGreen)
)

func warnf(w io.Writer, format string, args ...any) {
	paint(w, warnColor, "warning: "+format+"\n", args...)
}

func okf(w io.Writer, format string, args ...any) {
	paint(w, okColor, format+"\n", args...)
}
