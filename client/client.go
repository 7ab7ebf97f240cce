// Package client is a typed client for the Mini Social API. It keeps the small amount
// of state the app screens need: the session token, the logged-in flag and the
// upload busy flag. Every response is decoded through the models schema.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"minisocial-api/models"
)

var (
	ErrNotLoggedIn      = errors.New("client: not logged in")
	ErrUploadInProgress = errors.New("client: an upload is already running")
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Err     string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api %d: %s: %s", e.Status, e.Err, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Err)
}

type Client struct {
	baseURL string
	http    *http.Client

	mutex  sync.RWMutex
	token  string
	userID string

	loggedIn  atomic.Bool
	uploading atomic.Bool
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:8080).
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/") + "/api/v1",
		http:    httpClient,
	}
}

// LoggedIn reports whether a sign-in or sign-up has succeeded. It never goes back to false.
func (c *Client) LoggedIn() bool {
	return c.loggedIn.Load()
}

// Uploading reports whether an Upload call is in flight.
func (c *Client) Uploading() bool {
	return c.uploading.Load()
}

// UserID returns the session user id, empty before login.
func (c *Client) UserID() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.userID
}

// Resume restores a previously issued token and checks it with the server.
func (c *Client) Resume(ctx context.Context, token string) error {
	c.setSession(token, "")

	var resp struct {
		UserID string `json:"userId"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/auth/session", nil, &resp); err != nil {
		c.setSession("", "")
		return err
	}
	c.setSession(token, resp.UserID)
	c.loggedIn.Store(true)
	return nil
}

func (c *Client) SignIn(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/auth/signin", email, password)
}

func (c *Client) SignUp(ctx context.Context, email, password string) error {
	return c.authenticate(ctx, "/auth/signup", email, password)
}

// Token returns the bearer token of the current session.
func (c *Client) Token() string {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.token
}

func (c *Client) authenticate(ctx context.Context, path, email, password string) error {
	body := map[string]string{"email": email, "password": password}
	var resp struct {
		Token  string `json:"token"`
		UserID string `json:"userId"`
	}
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return err
	}
	if resp.Token == "" || resp.UserID == "" {
		return &models.DecodeError{Field: "auth", Reason: "missing token or userId"}
	}
	c.setSession(resp.Token, resp.UserID)
	c.loggedIn.Store(true)
	return nil
}

func (c *Client) setSession(token, userID string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.token = token
	c.userID = userID
}

// Feed fetches the whole feed once.
func (c *Client) Feed(ctx context.Context) ([]models.Post, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, "/contents", nil, "")
	if err != nil {
		return nil, err
	}
	return models.DecodePosts(raw)
}

// OwnPosts fetches the posts of the logged-in user.
func (c *Client) OwnPosts(ctx context.Context) ([]models.Post, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, "/contents/mine", nil, "")
	if err != nil {
		return nil, err
	}
	return models.DecodePosts(raw)
}

// Like sends a like computed from the like count the caller last saw and returns the
// count the server stored.
func (c *Client) Like(ctx context.Context, postID string, observedLikes int) (int, error) {
	var resp struct {
		Likes *int `json:"likes"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/contents/"+postID+"/like", map[string]int{"observedLikes": observedLikes}, &resp); err != nil {
		return 0, err
	}
	if resp.Likes == nil {
		return 0, &models.DecodeError{Field: "likes", Reason: "missing"}
	}
	return *resp.Likes, nil
}

func (c *Client) AddComment(ctx context.Context, postID, text string) (models.Comment, error) {
	var resp models.Comment
	if err := c.doJSON(ctx, http.MethodPost, "/contents/"+postID+"/comments", map[string]string{"comment": text}, &resp); err != nil {
		return models.Comment{}, err
	}
	return resp, nil
}

// Upload posts an image with its description. Only one upload runs at a time.
func (c *Client) Upload(ctx context.Context, image []byte, filename, description string) (models.Post, error) {
	if !c.uploading.CompareAndSwap(false, true) {
		return models.Post{}, ErrUploadInProgress
	}
	defer c.uploading.Store(false)

	body, contentType, err := multipartBody(map[string]string{"description": description}, "image", filename, image)
	if err != nil {
		return models.Post{}, err
	}
	raw, err := c.doRaw(ctx, http.MethodPost, "/contents", body, contentType)
	if err != nil {
		return models.Post{}, err
	}
	return models.DecodePost(raw)
}

func (c *Client) LoadProfile(ctx context.Context) (models.Profile, error) {
	raw, err := c.doRaw(ctx, http.MethodGet, "/profile", nil, "")
	if err != nil {
		return models.Profile{}, err
	}
	return models.DecodeProfile(raw)
}

// SaveProfile overwrites the profile. A nil avatar keeps the stored picture.
func (c *Client) SaveProfile(ctx context.Context, username, bio string, avatar []byte) (models.Profile, error) {
	fields := map[string]string{"username": username, "bio": bio}
	var (
		body        io.Reader
		contentType string
		err         error
	)
	if len(avatar) > 0 {
		body, contentType, err = multipartBody(fields, "avatar", "avatar.jpg", avatar)
	} else {
		body, contentType, err = jsonBody(fields)
	}
	if err != nil {
		return models.Profile{}, err
	}

	raw, err := c.doRaw(ctx, http.MethodPut, "/profile", body, contentType)
	if err != nil {
		return models.Profile{}, err
	}
	return models.DecodeProfile(raw)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var (
		body        io.Reader
		contentType string
	)
	if in != nil {
		b, ct, err := jsonBody(in)
		if err != nil {
			return err
		}
		body, contentType = b, ct
	}
	raw, err := c.doRaw(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &models.DecodeError{Field: path, Reason: err.Error()}
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) doRaw(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode/100 != 2 {
		return nil, apiError(resp.StatusCode, raw)
	}
	return raw, nil
}

func apiError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}
	if err := json.Unmarshal(raw, apiErr); err != nil || apiErr.Err == "" {
		apiErr.Err = http.StatusText(status)
	}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrNotLoggedIn, apiErr)
	}
	return apiErr
}

func jsonBody(v interface{}) (io.Reader, string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(b), "application/json", nil
}

func multipartBody(fields map[string]string, fileField, filename string, data []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if data != nil {
		part, err := w.CreateFormFile(fileField, filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
