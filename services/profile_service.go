package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"minisocial-api/models"
	"minisocial-api/repositories"
	"minisocial-api/storage"
)

type ProfileService struct {
	profiles *repositories.ProfileRepository
	blobs    storage.BlobStore
}

func NewProfileService(profiles *repositories.ProfileRepository, blobs storage.BlobStore) *ProfileService {
	return &ProfileService{profiles: profiles, blobs: blobs}
}

// Load returns the session user's profile. A missing record yields empty fields.
func (s *ProfileService) Load(ctx context.Context, session models.Session) (*models.Profile, error) {
	if !session.Valid() {
		log.Printf("No user is logged in")
		return nil, ErrNoSession
	}

	profile, err := s.profiles.Get(ctx, session.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		log.Printf("User document does not exist: %s", session.UserID)
		return &models.Profile{UserID: session.UserID}, nil
	}
	if err != nil {
		log.Printf("Error loading profile: %v", err)
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return profile, nil
}

// Save overwrites the whole profile record. When avatar is non-empty it is uploaded
// first and replaces the stored URL; the previous avatar blob is left in place.
// Without an avatar the stored URL is carried over.
func (s *ProfileService) Save(ctx context.Context, session models.Session, username, bio string, avatar []byte) (*models.Profile, error) {
	if !session.Valid() {
		log.Printf("No user is logged in")
		return nil, ErrNoSession
	}

	var imageURL string
	if len(avatar) > 0 {
		url, err := storeImage(ctx, s.blobs, storage.ProfileImagePrefix, avatar, ProfileImageQuality)
		if err != nil {
			return nil, err
		}
		imageURL = url
	} else {
		current, err := s.profiles.Get(ctx, session.UserID)
		switch {
		case err == nil:
			imageURL = current.ProfileImageURL
		case !errors.Is(err, repositories.ErrNotFound):
			log.Printf("Error loading profile: %v", err)
			return nil, fmt.Errorf("failed to load profile: %w", err)
		}
	}

	profile := models.Profile{
		UserID:          session.UserID,
		Username:        username,
		Bio:             bio,
		ProfileImageURL: imageURL,
	}
	if err := s.profiles.Put(ctx, &profile); err != nil {
		log.Printf("Error saving profile: %v", err)
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}

	log.Printf("Profile saved successfully: %s", session.UserID)
	return &profile, nil
}
