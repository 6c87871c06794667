package errors

// Error code constants organized by phase
// E001-E099: Lexer errors
// E100-E199: Parser errors
// E200-E299: Schema errors
// E300-E399: Instance errors
// E900-E999: IO errors

const (
	// Lexer errors (E001-E099)
	ErrInvalidCharacter   = "E001"
	ErrUnterminatedString = "E002"
	ErrInvalidNumber      = "E003"
	ErrInvalidEscape      = "E004"
	ErrMalformedToken     = "E005"

	// Parser errors (E100-E199)
	ErrUnexpectedToken    = "E100"
	ErrExpectedIdentifier = "E101"
	ErrExpectedParen      = "E102"
	ErrInvalidStatement   = "E103"
	ErrInvalidValue       = "E104"
	ErrInvalidModifier    = "E105"

	// Schema errors (E200-E299)
	ErrDuplicateElement = "E200"
	ErrDuplicateField   = "E201"
	ErrInvalidName      = "E202"
	ErrInvalidSelfAssoc = "E203"
	ErrInvalidLimit     = "E204"
	ErrUndefinedElement = "E205"

	// Instance errors (E300-E399)
	ErrUnknownField      = "E300"
	ErrReadOnlyField     = "E301"
	ErrTypeMismatch      = "E302"
	ErrCapacityExceeded  = "E303"
	ErrMissingRequired   = "E304"
	ErrAbstractType      = "E305"
	ErrMissingRoot       = "E306"
	ErrUnknownIdentifier = "E307"
	ErrInvalidIdentifier = "E308"
	ErrUnserializable    = "E309"

	// IO errors (E900-E999)
	ErrReadFailed = "E900"
	ErrUnexpected = "E999"
)

var errorMessages = map[string]string{
	ErrInvalidCharacter:   "Invalid character",
	ErrUnterminatedString: "Unterminated string literal",
	ErrInvalidNumber:      "Invalid number literal",
	ErrInvalidEscape:      "Invalid escape sequence",
	ErrMalformedToken:     "Malformed token",
	ErrUnexpectedToken:    "Unexpected token",
	ErrExpectedIdentifier: "Expected identifier",
	ErrExpectedParen:      "Expected parenthesis",
	ErrInvalidStatement:   "Invalid statement",
	ErrInvalidValue:       "Invalid value",
	ErrInvalidModifier:    "Invalid modifier",
	ErrDuplicateElement:   "Element already defined",
	ErrDuplicateField:     "Field already defined",
	ErrInvalidName:        "Invalid name",
	ErrInvalidSelfAssoc:   "Invalid self-association",
	ErrInvalidLimit:       "Invalid association limit",
	ErrUndefinedElement:   "Undefined element",
	ErrUnknownField:       "Unknown field",
	ErrReadOnlyField:      "Field is read-only",
	ErrTypeMismatch:       "Type mismatch",
	ErrCapacityExceeded:   "Collection limit exceeded",
	ErrMissingRequired:    "Missing required reference",
	ErrAbstractType:       "Abstract element can not be instantiated",
	ErrMissingRoot:        "Missing root element",
	ErrUnknownIdentifier:  "Unknown identifier",
	ErrInvalidIdentifier:  "Invalid identifier",
	ErrUnserializable:     "Model can not be serialized",
	ErrReadFailed:         "Could not read file",
	ErrUnexpected:         "Unexpected error",
}

// GetErrorMessage returns the default message for an error code
func GetErrorMessage(code string) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}
	return "Unknown error"
}

// GetPhaseForCode returns the loading phase for an error code
func GetPhaseForCode(code string) string {
	if len(code) != 4 || code[0] != 'E' {
		return "unknown"
	}

	switch code[1] {
	case '0':
		return "lexer"
	case '1':
		return "parser"
	case '2':
		return "schema"
	case '3':
		return "instance"
	case '9':
		return "io"
	default:
		return "unknown"
	}
}
