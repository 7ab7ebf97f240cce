package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"minisocial-api/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateLike = errors.New("post already liked by user")
)

type PostRepository struct {
	db *gorm.DB
}

func NewPostRepository(db *gorm.DB) *PostRepository {
	return &PostRepository{db: db}
}

// Create inserts a new post. The store assigns the timestamp.
func (r *PostRepository) Create(ctx context.Context, post *models.Post) error {
	if post.Comments == nil {
		post.Comments = models.CommentList{}
	}
	return r.db.WithContext(ctx).Create(post).Error
}

// List returns every post, newest first.
func (r *PostRepository) List(ctx context.Context) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.db.WithContext(ctx).Order("timestamp DESC").Order("id DESC").Find(&posts).Error
	return posts, err
}

// ListByUser returns all posts owned by userID.
func (r *PostRepository) ListByUser(ctx context.Context, userID string) ([]models.Post, error) {
	posts := []models.Post{}
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("timestamp DESC").Order("id DESC").
		Find(&posts).Error
	return posts, err
}

// Get loads a single post.
func (r *PostRepository) Get(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostRepository) exists(tx *gorm.DB, id string) error {
	var count int64
	if err := tx.Model(&models.Post{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLikes overwrites the like counter with a caller-supplied value.
func (r *PostRepository) SetLikes(ctx context.Context, id string, likes int) error {
	db := r.db.WithContext(ctx)
	if err := r.exists(db, id); err != nil {
		return err
	}
	return db.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("likes", likes).Error
}

// IncrementLikes adds one to the counter inside the store and returns the new value.
func (r *PostRepository) IncrementLikes(ctx context.Context, id string) (int, error) {
	var likes int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("likes", gorm.Expr("likes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.Post{}).Where("id = ?", id).Pluck("likes", &likes).Error
	})
	return likes, err
}

// AddLike records a like by userID and recomputes the counter from the like rows.
func (r *PostRepository) AddLike(ctx context.Context, id, userID string) (int, error) {
	var likes int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.exists(tx, id); err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&models.PostLike{}).Where("post_id = ? AND user_id = ?", id, userID).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrDuplicateLike
		}

		if err := tx.Create(&models.PostLike{PostID: id, UserID: userID}).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.PostLike{}).Where("post_id = ?", id).Count(&likes).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("likes", likes).Error
	})
	return int(likes), err
}

// UnionComment appends c to the comment list unless an equal element exists.
// The read and write happen under a row lock so the append is atomic per post.
func (r *PostRepository) UnionComment(ctx context.Context, id string, c models.Comment) (models.CommentList, error) {
	var result models.CommentList
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&post, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		comments, changed := post.Comments.Union(c)
		result = comments
		if !changed {
			return nil
		}
		return tx.Model(&models.Post{}).Where("id = ?", id).UpdateColumn("comments", comments).Error
	})
	return result, err
}

// ImageURLs lists the image URL of every post.
func (r *PostRepository) ImageURLs(ctx context.Context) ([]string, error) {
	var urls []string
	err := r.db.WithContext(ctx).Model(&models.Post{}).Pluck("image_url", &urls).Error
	return urls, err
}
