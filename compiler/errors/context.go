package errors

import (
	"strings"
)

// EnrichError adds surrounding source lines to an error
func EnrichError(err CompilerError, sourceContent string) CompilerError {
	return err.WithContext(extractSourceContext(err.Location, sourceContent))
}

// EnrichAll adds source context to every error in the list
func EnrichAll(errs ErrorList, sourceContent string) ErrorList {
	out := make(ErrorList, len(errs))
	for i, err := range errs {
		out[i] = EnrichError(err, sourceContent)
	}
	return out
}

// extractSourceContext extracts 2 lines before, the error line, and 2 lines after
func extractSourceContext(location SourceLocation, sourceContent string) ErrorContext {
	lines := strings.Split(sourceContent, "\n")

	if location.Line < 1 || location.Line > len(lines) {
		return ErrorContext{}
	}

	errorLineIndex := location.Line - 1
	startLine := max(0, errorLineIndex-2)
	endLine := min(len(lines), errorLineIndex+3)

	contextLines := make([]string, 0, endLine-startLine)
	contextLines = append(contextLines, lines[startLine:endLine]...)

	return ErrorContext{
		SourceLines: contextLines,
		Highlight:   errorLineIndex - startLine,
		FirstLine:   startLine + 1,
	}
}
