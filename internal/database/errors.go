package database

import "fmt"

// ConnectionError reports that the store could not be reached, rejected the
// credentials, or was configured with an unsupported dialect.
type ConnectionError struct {
	Dialect string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("database connection (%s): %v", e.Dialect, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// SchemaError reports that the physical schema could not be reconciled with
// the declared one.
type SchemaError struct {
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema synchronization: %v", e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}
