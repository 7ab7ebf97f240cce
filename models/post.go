// File: /models/post.go
package models

import (
	"time"
)

// Post is one record of the contents collection.
type Post struct {
	ID          string      `json:"id" gorm:"primaryKey;size:191"`
	ImageURL    string      `json:"imageUrl" gorm:"not null;size:1024"`
	Description string      `json:"description" gorm:"type:text;not null"`
	Likes       int         `json:"likes" gorm:"not null;default:0"`
	Comments    CommentList `json:"comments" gorm:"not null"`
	UserID      string      `json:"userId" gorm:"not null;size:191;index"`
	Timestamp   time.Time   `json:"timestamp" gorm:"not null;index;autoCreateTime"`
}

func (Post) TableName() string {
	return "contents"
}

// PostLike records that a user liked a post. Used only by the unique like policy.
type PostLike struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	PostID    string    `json:"post_id" gorm:"not null;size:191;uniqueIndex:uk_post_likes_post_user"`
	UserID    string    `json:"user_id" gorm:"not null;size:191;uniqueIndex:uk_post_likes_post_user"`
	CreatedAt time.Time `json:"created_at"`
}
