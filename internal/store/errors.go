package store

import "fmt"

// SchemaError reports that an expected table is missing or unreadable.
type SchemaError struct {
	Table string
	Err   error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: table %q missing or unreadable: %v", e.Table, e.Err)
}

func (e *SchemaError) Unwrap() error { return e.Err }

// StoreError reports a failed write against the database. Rows committed
// before the failure stay committed unless the load runs in a transaction.
type StoreError struct {
	Op  string // what was being attempted, e.g. "insert place"
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// QueryError reports a failed read, e.g. the population aggregate.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query: %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
