// Package logging is the small leveled stderr logger the workflow server
// startup path uses instead of reaching for a new logging dependency.
package logging

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
)

var colorize = isatty.IsTerminal(os.Stderr.Fd())

const (
	colorDim   = "\x1b[2m"
	colorInfo  = "\x1b[36m"
	colorWarn  = "\x1b[33m"
	colorError = "\x1b[31m"
	colorReset = "\x1b[0m"
)

func Info(msg string, fields ...any)  { log("INFO", colorInfo, msg, fields...) }
func Warn(msg string, fields ...any)  { log("WARN", colorWarn, msg, fields...) }
func Error(msg string, fields ...any) { log("ERROR", colorError, msg, fields...) }

// Count formats n with thousands separators for a log field, e.g. the
// number of registered integrations or tool handles at startup.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

func log(level, color, msg string, fields ...any) {
	ts := time.Now().UTC().Format(time.RFC3339)
	line := fmt.Sprintf("%s level=%s msg=%q", ts, level, msg)
	for i := 0; i+1 < len(fields); i += 2 {
		line += fmt.Sprintf(" %v=%v", fields[i], fields[i+1])
	}
	if colorize {
		fmt.Fprintf(os.Stderr, "%s%s%s%s\n", colorDim, color, line, colorReset)
		return
	}
	fmt.Fprintln(os.Stderr, line)
}
