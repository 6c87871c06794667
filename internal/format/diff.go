package format

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// Op marks a diff line
type Op byte

const (
	OpEqual  Op = ' '
	OpDelete Op = '-'
	OpInsert Op = '+'
)

// Line is one line of a diff
type Line struct {
	Op   Op
	Text string
}

// DiffResult represents the difference between original and formatted text
type DiffResult struct {
	Original  string
	Formatted string
	Changed   bool
	Lines     []Line
}

// Diff compares original and formatted text line by line
func Diff(original, formatted string) *DiffResult {
	d := &DiffResult{
		Original:  original,
		Formatted: formatted,
		Changed:   original != formatted,
	}
	if d.Changed {
		d.Lines = diffLines(splitLines(original), splitLines(formatted))
	}
	return d
}

// String returns the changed lines with color highlighting
func (d *DiffResult) String() string {
	if !d.Changed {
		return color.GreenString("No changes needed")
	}

	var buf bytes.Buffer
	red := color.New(color.FgRed)
	green := color.New(color.FgGreen)
	for _, l := range d.Lines {
		switch l.Op {
		case OpDelete:
			red.Fprintf(&buf, "- %s\n", l.Text)
		case OpInsert:
			green.Fprintf(&buf, "+ %s\n", l.Text)
		}
	}
	return buf.String()
}

// UnifiedDiff returns the whole diff with a file header and no context
// trimming
func (d *DiffResult) UnifiedDiff(filename string) string {
	if !d.Changed {
		return ""
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "--- a/%s\n", filename)
	fmt.Fprintf(&buf, "+++ b/%s\n", filename)
	fmt.Fprintf(&buf, "@@ -1,%d +1,%d @@\n", len(splitLines(d.Original)), len(splitLines(d.Formatted)))
	for _, l := range d.Lines {
		fmt.Fprintf(&buf, "%c%s\n", l.Op, l.Text)
	}
	return buf.String()
}

// Stats returns statistics about the changes
func (d *DiffResult) Stats() string {
	if !d.Changed {
		return "No changes"
	}

	added, removed := 0, 0
	for _, l := range d.Lines {
		switch l.Op {
		case OpInsert:
			added++
		case OpDelete:
			removed++
		}
	}
	return fmt.Sprintf("%d lines added, %d removed", added, removed)
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}

// diffLines aligns a and b on their longest common subsequence
func diffLines(a, b []string) []Line {
	// lcs[i][j] is the LCS length of a[i:] and b[j:]
	lcs := make([][]int, len(a)+1)
	for i := range lcs {
		lcs[i] = make([]int, len(b)+1)
	}
	for i := len(a) - 1; i >= 0; i-- {
		for j := len(b) - 1; j >= 0; j-- {
			if a[i] == b[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else {
				lcs[i][j] = max(lcs[i+1][j], lcs[i][j+1])
			}
		}
	}

	out := make([]Line, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, Line{OpEqual, a[i]})
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			out = append(out, Line{OpDelete, a[i]})
			i++
		default:
			out = append(out, Line{OpInsert, b[j]})
			j++
		}
	}
	for ; i < len(a); i++ {
		out = append(out, Line{OpDelete, a[i]})
	}
	for ; j < len(b); j++ {
		out = append(out, Line{OpInsert, b[j]})
	}
	return out
}
