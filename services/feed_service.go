package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"minisocial-api/config"
	"minisocial-api/models"
	"minisocial-api/repositories"
)

type FeedService struct {
	posts         *repositories.PostRepository
	profiles      *repositories.ProfileRepository
	hub           *FeedHub
	likePolicy    string
	commentAuthor string
}

func NewFeedService(posts *repositories.PostRepository, profiles *repositories.ProfileRepository, hub *FeedHub, likePolicy, commentAuthor string) *FeedService {
	return &FeedService{
		posts:         posts,
		profiles:      profiles,
		hub:           hub,
		likePolicy:    likePolicy,
		commentAuthor: commentAuthor,
	}
}

// Feed returns every post, newest first.
func (s *FeedService) Feed(ctx context.Context) ([]models.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		log.Printf("Error fetching content: %v", err)
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	return posts, nil
}

// Subscribe calls fn with the full feed now and again after every change until ctx
// is done or fn fails. Failed re-reads are logged and the subscription stays open.
func (s *FeedService) Subscribe(ctx context.Context, fn func([]models.Post) error) error {
	changes, unsubscribe := s.hub.Subscribe()
	defer unsubscribe()

	for {
		posts, err := s.Feed(ctx)
		if err == nil {
			if err := fn(posts); err != nil {
				return err
			}
		} else if ctx.Err() != nil {
			return ctx.Err()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changes:
		}
	}
}

// OwnPosts returns every post owned by the session user in one read.
func (s *FeedService) OwnPosts(ctx context.Context, session models.Session) ([]models.Post, error) {
	if !session.Valid() {
		log.Printf("No user is logged in")
		return nil, ErrNoSession
	}
	posts, err := s.posts.ListByUser(ctx, session.UserID)
	if err != nil {
		log.Printf("Error fetching user content: %v", err)
		return nil, fmt.Errorf("failed to fetch user content: %w", err)
	}
	return posts, nil
}

// Like registers a like and returns the resulting count.
//
// Under the observed policy the stored count becomes observedLikes+1 regardless of its
// current value, so two likes that observed the same count collapse into one.
func (s *FeedService) Like(ctx context.Context, session models.Session, postID string, observedLikes int) (int, error) {
	if !session.Valid() {
		return 0, ErrNoSession
	}
	if observedLikes < 0 {
		return 0, ErrInvalidLikeCount
	}

	var (
		likes int
		err   error
	)
	switch s.likePolicy {
	case config.LikePolicyAtomic:
		likes, err = s.posts.IncrementLikes(ctx, postID)
	case config.LikePolicyUnique:
		likes, err = s.posts.AddLike(ctx, postID, session.UserID)
	default:
		likes = observedLikes + 1
		err = s.posts.SetLikes(ctx, postID, likes)
	}
	if err != nil {
		log.Printf("Error updating likes: %v", err)
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return 0, ErrPostNotFound
		case errors.Is(err, repositories.ErrDuplicateLike):
			return 0, ErrAlreadyLiked
		}
		return 0, fmt.Errorf("failed to update likes: %w", err)
	}

	s.hub.Publish()
	return likes, nil
}

// AddComment appends a comment to the post's list with array-union semantics.
func (s *FeedService) AddComment(ctx context.Context, session models.Session, postID, text string) (models.Comment, error) {
	if !session.Valid() {
		return models.Comment{}, ErrNoSession
	}
	if strings.TrimSpace(text) == "" {
		return models.Comment{}, ErrEmptyComment
	}

	comment := models.Comment{
		Username: s.authorName(ctx, session),
		Comment:  text,
	}
	if _, err := s.posts.UnionComment(ctx, postID, comment); err != nil {
		log.Printf("Error adding comment: %v", err)
		if errors.Is(err, repositories.ErrNotFound) {
			return models.Comment{}, ErrPostNotFound
		}
		return models.Comment{}, fmt.Errorf("failed to add comment: %w", err)
	}

	s.hub.Publish()
	return comment, nil
}

func (s *FeedService) authorName(ctx context.Context, session models.Session) string {
	if s.commentAuthor != config.CommentAuthorProfile {
		return models.PlaceholderCommentAuthor
	}
	profile, err := s.profiles.Get(ctx, session.UserID)
	if err != nil || profile.Username == "" {
		return models.PlaceholderCommentAuthor
	}
	return profile.Username
}
