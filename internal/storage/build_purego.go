//go:build !sqlite_cgo

package storage

// This file is compiled by default. It uses a pure Go SQLite implementation.
//
// Build command:
//   CGO_ENABLED=0 go build ./...
//
// Driver used: modernc.org/sqlite

import (
	"database/sql/driver"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	// DriverName is the SQLite driver to use
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)

func init() {
	// SQLite parses `X REGEXP Y` as regexp(Y, X)
	err := sqlite.RegisterDeterministicScalarFunction("regexp", 2,
		func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
			pattern, ok := args[0].(string)
			if !ok {
				return nil, fmt.Errorf("REGEXP pattern must be text, got %T", args[0])
			}
			matched, err := matchPattern(pattern, args[1])
			if err != nil || !matched {
				return int64(0), err
			}
			return int64(1), nil
		})
	if err != nil {
		panic(fmt.Sprintf("failed to register REGEXP function: %v", err))
	}
}

// isBusy reports whether err is SQLITE_BUSY or SQLITE_LOCKED, extended codes
// included
func isBusy(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
