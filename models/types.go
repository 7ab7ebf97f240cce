// File: /models/types.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Value implements driver.Valuer interface for database storage
func (cl CommentList) Value() (driver.Value, error) {
	if cl == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]Comment(cl))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner interface for database retrieval.
// Stored elements go through the same validation as API payloads.
func (cl *CommentList) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*cl = CommentList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into CommentList", value)
	}

	comments, err := decodeComments(raw, "comments")
	if err != nil {
		return err
	}
	*cl = comments
	return nil
}

// GormDataType returns the data type for GORM
func (CommentList) GormDataType() string {
	return "json"
}

// MarshalJSON implements json.Marshaler interface
func (cl CommentList) MarshalJSON() ([]byte, error) {
	if cl == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Comment(cl))
}
