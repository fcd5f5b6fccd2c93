package initialize

import "fmt"

// StatementError reports a schema statement that the database rejected. It
// carries the failing SQL so the log shows exactly what was sent, and wraps
// the driver error for callers that match on it.
type StatementError struct {
	Object string
	SQL    string
	Err    error
}

func (e *StatementError) Error() string {
	return fmt.Sprintf("statement failed for %s: %v", e.Object, e.Err)
}

func (e *StatementError) Unwrap() error {
	return e.Err
}
