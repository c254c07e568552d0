// Package jsonout writes pipeline artifacts as compact JSON files. Output is
// deterministic: the same data always produces the same bytes, so re-running
// a step rewrites an identical file.
package jsonout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// WriteError reports a failed artifact write, either serialization or I/O.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Write marshals v compactly (no indentation, no spaces after separators),
// creates any missing parent directories, and replaces the file at path.
func Write(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return &WriteError{Path: path, Err: err}
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
