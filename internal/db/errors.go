package db

import (
	"errors"
	"fmt"
)

// Sentinel errors for database operations.
var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
)

// Op constants map to Redis command names for error context.
const (
	OpCreateIndex = "FT.CREATE"
	OpDropIndex   = "FT.DROPINDEX"
	OpIndexInfo   = "FT.INFO"
	OpSearch      = "FT.SEARCH"
	OpHGetAll     = "HGETALL"
	OpHSet        = "HSET"
	OpGet         = "GET"
	OpSet         = "SET"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

// BatchError reports a pipelined write where some items failed.
// Failed lists the keys (or ids, once mapped by a repository) that were not written.
type BatchError struct {
	Op     string
	Failed []string
	Err    error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %d item(s) failed %v: %v", e.Op, len(e.Failed), e.Failed, e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }
