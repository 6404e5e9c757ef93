package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// jsonb stores a Go value in a JSONB column.
type jsonb[T any] struct {
	Val T
}

func (j jsonb[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.Val)
	if err != nil {
		return nil, fmt.Errorf("jsonb marshal: %w", err)
	}
	return string(b), nil
}

func (j *jsonb[T]) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		var zero T
		j.Val = zero
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("jsonb scan: unsupported type %T", src)
	}
	if err := json.Unmarshal(raw, &j.Val); err != nil {
		return fmt.Errorf("jsonb unmarshal: %w", err)
	}
	return nil
}
