package preset

import "fmt"

// FormatError reports a malformed chain string, preset file, or
// plug-in state blob, matching the core's FormatParse error kind.
// Reported at the loader boundary; the audio thread never sees it.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return e.Msg }

func formatErr(format string, args ...interface{}) *FormatError {
	return &FormatError{Msg: fmt.Sprintf(format, args...)}
}
