package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DecodeError reports a record that does not match its schema.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Field, e.Reason)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// wirePost mirrors the stored shape. Pointers distinguish absent fields from zero values.
type wirePost struct {
	ID          *string         `json:"id" validate:"required"`
	ImageURL    *string         `json:"imageUrl" validate:"required"`
	Description *string         `json:"description" validate:"required"`
	Likes       *int            `json:"likes" validate:"required,min=0"`
	Comments    json.RawMessage `json:"comments" validate:"required"`
	UserID      string          `json:"userId"`
	Timestamp   time.Time       `json:"timestamp"`
}

type wireComment struct {
	Username *string `json:"username" validate:"required"`
	Comment  *string `json:"comment" validate:"required"`
}

type wireProfile struct {
	Username        *string `json:"username"`
	Bio             *string `json:"bio"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// DecodePost turns a raw post record into a Post or a *DecodeError.
func DecodePost(raw []byte) (Post, error) {
	return decodePost(raw, "post")
}

// DecodePosts decodes a JSON array of post records. One malformed element fails the whole list.
func DecodePosts(raw []byte) ([]Post, error) {
	if isJSONNull(raw) {
		return nil, &DecodeError{Field: "posts", Reason: "expected array, got null"}
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &DecodeError{Field: "posts", Reason: jsonReason(err)}
	}

	posts := make([]Post, 0, len(items))
	for i, item := range items {
		p, err := decodePost(item, fmt.Sprintf("posts[%d]", i))
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// DecodeProfile decodes a users record. Absent fields default to "".
func DecodeProfile(raw []byte) (Profile, error) {
	var w wireProfile
	if err := json.Unmarshal(raw, &w); err != nil {
		return Profile{}, &DecodeError{Field: "profile", Reason: jsonReason(err)}
	}
	return Profile{
		Username:        deref(w.Username),
		Bio:             deref(w.Bio),
		ProfileImageURL: deref(w.ProfileImageURL),
	}, nil
}

func decodePost(raw []byte, field string) (Post, error) {
	if isJSONNull(raw) {
		return Post{}, &DecodeError{Field: field, Reason: "expected object, got null"}
	}
	var w wirePost
	if err := json.Unmarshal(raw, &w); err != nil {
		return Post{}, &DecodeError{Field: field, Reason: jsonReason(err)}
	}
	if err := validate.Struct(w); err != nil {
		return Post{}, validationError(field, err)
	}

	comments, err := decodeComments(w.Comments, field+".comments")
	if err != nil {
		return Post{}, err
	}

	return Post{
		ID:          *w.ID,
		ImageURL:    *w.ImageURL,
		Description: *w.Description,
		Likes:       *w.Likes,
		Comments:    comments,
		UserID:      w.UserID,
		Timestamp:   w.Timestamp,
	}, nil
}

func decodeComments(raw []byte, field string) (CommentList, error) {
	if isJSONNull(raw) {
		return nil, &DecodeError{Field: field, Reason: "expected array, got null"}
	}
	var items []wireComment
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, &DecodeError{Field: field, Reason: jsonReason(err)}
	}

	comments := make(CommentList, 0, len(items))
	for i, item := range items {
		if err := validate.Struct(item); err != nil {
			return nil, validationError(fmt.Sprintf("%s[%d]", field, i), err)
		}
		comments = append(comments, Comment{Username: *item.Username, Comment: *item.Comment})
	}
	return comments, nil
}

func validationError(field string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		reason := "failed " + fe.Tag()
		if fe.Tag() == "required" {
			reason = "missing"
		}
		return &DecodeError{Field: field + "." + fe.Field(), Reason: reason}
	}
	return &DecodeError{Field: field, Reason: err.Error()}
}

func jsonReason(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s has wrong type %s", typeErr.Field, typeErr.Value)
	}
	return err.Error()
}

func isJSONNull(raw []byte) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
