// File: /controllers/post_controller.go
package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"minisocial-api/middleware"
	"minisocial-api/models"
	"minisocial-api/services"
	"minisocial-api/utils"
)

// MaxImageBytes bounds a single uploaded image.
const MaxImageBytes = 10 << 20

type PostController struct {
	feedService   *services.FeedService
	uploadService *services.UploadService
}

func NewPostController(feedService *services.FeedService, uploadService *services.UploadService) *PostController {
	return &PostController{
		feedService:   feedService,
		uploadService: uploadService,
	}
}

type LikeRequest struct {
	ObservedLikes *int `json:"observedLikes" binding:"required,min=0"`
}

type CommentRequest struct {
	Comment string `json:"comment" binding:"required"`
}

func (pc *PostController) GetFeed(c *gin.Context) {
	posts, err := pc.feedService.Feed(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// StreamFeed pushes the full feed as a "snapshot" event on connect and after every change.
func (pc *PostController) StreamFeed(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	err := pc.feedService.Subscribe(c.Request.Context(), func(posts []models.Post) error {
		c.SSEvent("snapshot", posts)
		if c.IsAborted() {
			return errors.New("stream write failed")
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil && c.Request.Context().Err() == nil {
		_ = c.Error(err)
	}
}

func (pc *PostController) GetOwnPosts(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	posts, err := pc.feedService.OwnPosts(c.Request.Context(), session)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost takes a multipart form with an "image" file and a "description" field.
func (pc *PostController) CreatePost(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	image, err := readFormFile(c, "image")
	if err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	post, err := pc.uploadService.Upload(c.Request.Context(), session, image, c.PostForm("description"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (pc *PostController) LikePost(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	var req LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	likes, err := pc.feedService.Like(c.Request.Context(), session, c.Param("id"), *req.ObservedLikes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (pc *PostController) AddComment(c *gin.Context) {
	session, _ := middleware.SessionFrom(c)

	var req CommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	comment, err := pc.feedService.AddComment(c.Request.Context(), session, c.Param("id"), req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// readFormFile returns the bytes of an uploaded file, or nil when the field is absent.
func readFormFile(c *gin.Context, field string) ([]byte, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s upload: %w", field, err)
	}
	if header.Size > MaxImageBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", field, MaxImageBytes)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open %s upload: %w", field, err)
	}
	defer f.Close()

	return io.ReadAll(io.LimitReader(f, MaxImageBytes))
}
