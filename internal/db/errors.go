package db

import "errors"

// Sentinel errors for database operations.
var (
	ErrKeyNotFound     = errors.New("db: key not found")
	ErrElementNotFound = errors.New("db: element not found")
	ErrWrongType       = errors.New("db: key holds a non vector set value")
)

// Op constants map to Redis command names for error context.
const (
	OpPing     = "PING"
	OpGet      = "GET"
	OpSet      = "SET"
	OpEval     = "EVAL"
	OpVSetAttr = "VSETATTR"
	OpVInfo    = "VINFO"
	OpVSim     = "VSIM"
	OpMulti    = "MULTI"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
