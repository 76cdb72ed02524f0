package db

import "errors"

// Sentinel errors for database operations.
var ErrKeyNotFound = errors.New("db: key not found")

// Op constants map to Redis command names for error context.
const (
	OpSearch    = "FT.SEARCH"
	OpAggregate = "FT.AGGREGATE"
	OpSugAdd    = "FT.SUGADD"
	OpSugGet    = "FT.SUGGET"
	OpSugDel    = "FT.SUGDEL"
	OpGet       = "GET"
	OpSet       = "SET"
	OpDel       = "DEL"
	OpScan      = "SCAN"
	OpHSet      = "HSET"
	OpHGetAll   = "HGETALL"
	OpExists    = "EXISTS"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
