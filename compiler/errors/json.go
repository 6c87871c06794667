package errors

import (
	"encoding/json"
)

// JSONOutput represents the JSON structure for error output
type JSONOutput struct {
	Status  string          `json:"status"`
	Errors  []CompilerError `json:"errors"`
	Summary Summary         `json:"summary"`
}

// Summary contains error counts
type Summary struct {
	ErrorCount int `json:"error_count"`
}

// FormatErrorsAsJSON formats a list of errors as indented JSON
func FormatErrorsAsJSON(errs []CompilerError) (string, error) {
	status := "success"
	if len(errs) > 0 {
		status = "error"
	}

	output := JSONOutput{
		Status:  status,
		Errors:  errs,
		Summary: Summary{ErrorCount: len(errs)},
	}
	if output.Errors == nil {
		output.Errors = []CompilerError{}
	}

	data, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
