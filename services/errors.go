package services

import "errors"

var (
	ErrNoSession          = errors.New("no user is logged in")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")

	ErrPostNotFound     = errors.New("post not found")
	ErrAlreadyLiked     = errors.New("post already liked")
	ErrInvalidLikeCount = errors.New("observed like count must not be negative")
	ErrEmptyComment     = errors.New("comment must not be empty")

	ErrEmptyDescription = errors.New("description must not be empty")
	ErrNoImage          = errors.New("no image selected")
	ErrEncodeImage      = errors.New("failed to convert image to JPEG")
)
