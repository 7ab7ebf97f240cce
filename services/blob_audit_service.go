package services

import (
	"context"
	"fmt"

	"minisocial-api/repositories"
	"minisocial-api/storage"
)

// BlobAuditService finds stored images that no post or profile references.
type BlobAuditService struct {
	posts    *repositories.PostRepository
	profiles *repositories.ProfileRepository
	blobs    storage.BlobStore
}

func NewBlobAuditService(posts *repositories.PostRepository, profiles *repositories.ProfileRepository, blobs storage.BlobStore) *BlobAuditService {
	return &BlobAuditService{posts: posts, profiles: profiles, blobs: blobs}
}

// Orphans returns the keys of unreferenced blobs. Nothing is deleted.
func (s *BlobAuditService) Orphans(ctx context.Context) ([]string, error) {
	referenced := make(map[string]struct{})

	postURLs, err := s.posts.ImageURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list post images: %w", err)
	}
	avatarURLs, err := s.profiles.AvatarURLs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list avatars: %w", err)
	}
	for _, u := range append(postURLs, avatarURLs...) {
		referenced[u] = struct{}{}
	}

	var orphans []string
	for _, prefix := range []string{storage.PostImagePrefix, storage.ProfileImagePrefix} {
		keys, err := s.blobs.List(ctx, prefix)
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			url, err := s.blobs.URL(ctx, key)
			if err != nil {
				return nil, err
			}
			if _, ok := referenced[url]; !ok {
				orphans = append(orphans, key)
			}
		}
	}
	return orphans, nil
}
