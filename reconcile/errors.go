package reconcile

import "fmt"

// Operations reported in TargetError.Op.
const (
	OpConnect   = "connect"
	OpInspect   = "inspect"
	OpCreate    = "create table"
	OpAddColumn = "add column"
)

// TargetError is a failure confined to one target database. Target is the
// redacted descriptor; the raw connection string is never stored.
type TargetError struct {
	Target string
	Op     string
	Column string // set for OpAddColumn
	Err    error
}

func (e *TargetError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("%s: %s %s failed: %v", e.Target, e.Op, e.Column, e.Err)
	}
	return fmt.Sprintf("%s: %s failed: %v", e.Target, e.Op, e.Err)
}

func (e *TargetError) Unwrap() error {
	return e.Err
}
