package errors

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// FormatForTerminal formats a CompilerError for terminal output
func (e CompilerError) FormatForTerminal() string {
	var sb strings.Builder

	header := color.New(color.FgRed, color.Bold)
	if e.Severity == Warning {
		header = color.New(color.FgYellow, color.Bold)
	}
	location := color.New(color.FgCyan)
	gutter := color.New(color.FgBlue)

	header.Fprintf(&sb, "%s[%s]", e.Severity, e.Code)
	fmt.Fprintf(&sb, ": %s\n", e.Message)

	if e.Location.Line > 0 {
		location.Fprint(&sb, "  --> ")
		fmt.Fprintf(&sb, "%s:%d:%d\n", e.Location.File, e.Location.Line, e.Location.Column)
	} else if e.Location.File != "" {
		location.Fprint(&sb, "  --> ")
		fmt.Fprintf(&sb, "%s\n", e.Location.File)
	}

	for i, line := range e.Context.SourceLines {
		num := e.Context.FirstLine + i
		gutter.Fprintf(&sb, "%4d | ", num)
		sb.WriteString(line)
		sb.WriteString("\n")

		if i == e.Context.Highlight && e.Location.Column > 0 {
			gutter.Fprint(&sb, "     | ")
			sb.WriteString(strings.Repeat(" ", e.Location.Column-1))
			header.Fprint(&sb, "^")
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
