// Package storage holds the blob store used for post images and avatars.
package storage

import (
	"context"
	"errors"
)

// Key prefixes for uploaded images.
const (
	PostImagePrefix    = "images/"
	ProfileImagePrefix = "profile_images/"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore writes objects by key and resolves a durable retrieval URL for them.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	URL(ctx context.Context, key string) (string, error)
	List(ctx context.Context, prefix string) ([]string, error)
}
