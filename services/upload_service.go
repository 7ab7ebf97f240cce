package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"minisocial-api/models"
	"minisocial-api/repositories"
	"minisocial-api/storage"
)

type UploadService struct {
	posts *repositories.PostRepository
	blobs storage.BlobStore
	hub   *FeedHub
}

func NewUploadService(posts *repositories.PostRepository, blobs storage.BlobStore, hub *FeedHub) *UploadService {
	return &UploadService{posts: posts, blobs: blobs, hub: hub}
}

// Upload stores the image and then writes a post referencing it. Each step needs the
// previous one; a failure after the blob write leaves the blob unreferenced.
func (s *UploadService) Upload(ctx context.Context, session models.Session, image []byte, description string) (*models.Post, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrEmptyDescription
	}
	if len(image) == 0 {
		return nil, ErrNoImage
	}

	imageURL, err := storeImage(ctx, s.blobs, storage.PostImagePrefix, image, PostImageQuality)
	if err != nil {
		return nil, err
	}

	if !session.Valid() {
		log.Printf("No user is logged in")
		return nil, ErrNoSession
	}

	post := models.Post{
		ID:          uuid.New().String(),
		ImageURL:    imageURL,
		Description: description,
		Likes:       0,
		Comments:    models.CommentList{},
		UserID:      session.UserID,
	}
	if err := s.posts.Create(ctx, &post); err != nil {
		log.Printf("Failed to save content: %v", err)
		return nil, fmt.Errorf("failed to save content: %w", err)
	}

	log.Printf("Content uploaded successfully: %s", post.ID)
	s.hub.Publish()
	return &post, nil
}

// storeImage converts data to JPEG, writes it under a fresh random name and
// resolves its retrieval URL.
func storeImage(ctx context.Context, blobs storage.BlobStore, prefix string, data []byte, quality int) (string, error) {
	encoded, err := EncodeJPEG(data, quality)
	if err != nil {
		log.Printf("Failed to convert image to JPEG: %v", err)
		return "", err
	}

	key := prefix + uuid.New().String() + ".jpg"
	if err := blobs.Put(ctx, key, encoded, "image/jpeg"); err != nil {
		log.Printf("Failed to upload image: %v", err)
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	url, err := blobs.URL(ctx, key)
	if err != nil {
		log.Printf("Failed to get download URL: %v", err)
		return "", fmt.Errorf("failed to get download URL: %w", err)
	}
	log.Printf("Image uploaded: %s", url)
	return url, nil
}
