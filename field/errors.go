package field

import "fmt"

// SchemaError reports a malformed or incomplete input sample. It is fatal
// for the whole batch: the caller gets the error immediately and nothing is
// partially processed.
type SchemaError struct {
	Index  int    // position of the offending sample in the batch
	Field  string // missing or malformed field
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("sample %d: field %q: %s", e.Index, e.Field, e.Reason)
}

// InsufficientDataError reports that a predictor cannot be fitted on the
// given data. The comparator treats it as non-fatal: the predictor is
// skipped and flagged while the others continue.
type InsufficientDataError struct {
	Model    string
	Samples  int
	Distinct int // distinct target values seen
	Min      int // minimum samples required
}

func (e *InsufficientDataError) Error() string {
	if e.Distinct < 2 {
		return fmt.Sprintf("%s: %d distinct target values, need at least 2", e.Model, e.Distinct)
	}
	return fmt.Sprintf("%s: %d samples, need at least %d", e.Model, e.Samples, e.Min)
}

// SchemaMismatchError reports a predict-time feature vector whose width does
// not match the fitted schema. It indicates caller misuse and is never
// auto-corrected.
type SchemaMismatchError struct {
	Model string
	Got   int
	Want  int
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("%s: feature vector has %d values, fitted schema has %d", e.Model, e.Got, e.Want)
}
