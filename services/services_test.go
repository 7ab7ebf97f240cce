package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm/logger"
	"minisocial-api/config"
	"minisocial-api/database"
	"minisocial-api/models"
	"minisocial-api/repositories"
	"minisocial-api/storage"
)

type testEnv struct {
	posts    *repositories.PostRepository
	profiles *repositories.ProfileRepository
	accounts *repositories.AccountRepository
	blobs    *storage.LocalStore
	hub      *FeedHub
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Initialize("sqlite", ":memory:", logger.Silent)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate database: %v", err)
	}
	blobs, err := storage.NewLocalStore(t.TempDir(), "http://media.test")
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}
	return &testEnv{
		posts:    repositories.NewPostRepository(db),
		profiles: repositories.NewProfileRepository(db),
		accounts: repositories.NewAccountRepository(db),
		blobs:    blobs,
		hub:      NewFeedHub(),
	}
}

func (e *testEnv) feed(likePolicy, commentAuthor string) *FeedService {
	return NewFeedService(e.posts, e.profiles, e.hub, likePolicy, commentAuthor)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func seedPost(t *testing.T, e *testEnv, id, owner string) {
	t.Helper()
	post := &models.Post{ID: id, ImageURL: "http://img/" + id, Description: id, UserID: owner, Timestamp: time.Now()}
	if err := e.posts.Create(context.Background(), post); err != nil {
		t.Fatalf("failed to seed post: %v", err)
	}
}

var alice = models.Session{UserID: "alice", Email: "alice@example.com"}
var bob = models.Session{UserID: "bob", Email: "bob@example.com"}

func TestFeedHubCoalesces(t *testing.T) {
	hub := NewFeedHub()
	ch, unsubscribe := hub.Subscribe()

	hub.Publish()
	hub.Publish()
	hub.Publish()

	select {
	case <-ch:
	default:
		t.Fatalf("expected a pending notification")
	}
	select {
	case <-ch:
		t.Fatalf("notifications were not coalesced")
	default:
	}

	unsubscribe()
	unsubscribe()
	if n := hub.Subscribers(); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
	hub.Publish()
}

func TestLikeObservedLosesConcurrentUpdate(t *testing.T) {
	e := newTestEnv(t)
	svc := e.feed(config.LikePolicyObserved, config.CommentAuthorPlaceholder)
	ctx := context.Background()
	seedPost(t, e, "p", "owner")

	if likes, err := svc.Like(ctx, alice, "p", 0); err != nil || likes != 1 {
		t.Fatalf("Like(0): likes=%d err=%v", likes, err)
	}
	// Both callers saw 1.
	svc.Like(ctx, alice, "p", 1)
	svc.Like(ctx, bob, "p", 1)

	post, _ := e.posts.Get(ctx, "p")
	if post.Likes != 2 {
		t.Fatalf("expected 2 likes, got %d", post.Likes)
	}

	if _, err := svc.Like(ctx, alice, "p", -1); !errors.Is(err, ErrInvalidLikeCount) {
		t.Fatalf("expected ErrInvalidLikeCount, got %v", err)
	}
	if _, err := svc.Like(ctx, models.Session{}, "p", 0); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	if _, err := svc.Like(ctx, alice, "missing", 0); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}
}

func TestLikeAtomic(t *testing.T) {
	e := newTestEnv(t)
	svc := e.feed(config.LikePolicyAtomic, config.CommentAuthorPlaceholder)
	ctx := context.Background()
	seedPost(t, e, "p", "owner")

	svc.Like(ctx, alice, "p", 0)
	likes, err := svc.Like(ctx, bob, "p", 0)
	if err != nil || likes != 2 {
		t.Fatalf("expected 2 likes, got likes=%d err=%v", likes, err)
	}
}

func TestLikeUnique(t *testing.T) {
	e := newTestEnv(t)
	svc := e.feed(config.LikePolicyUnique, config.CommentAuthorPlaceholder)
	ctx := context.Background()
	seedPost(t, e, "p", "owner")

	if _, err := svc.Like(ctx, alice, "p", 0); err != nil {
		t.Fatalf("first like failed: %v", err)
	}
	if _, err := svc.Like(ctx, alice, "p", 1); !errors.Is(err, ErrAlreadyLiked) {
		t.Fatalf("expected ErrAlreadyLiked, got %v", err)
	}
	likes, err := svc.Like(ctx, bob, "p", 1)
	if err != nil || likes != 2 {
		t.Fatalf("expected 2 likes, got likes=%d err=%v", likes, err)
	}
}

func TestAddCommentAuthor(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	seedPost(t, e, "p", "owner")
	e.profiles.Put(ctx, &models.Profile{UserID: alice.UserID, Username: "qiao"})

	placeholder := e.feed(config.LikePolicyObserved, config.CommentAuthorPlaceholder)
	c, err := placeholder.AddComment(ctx, alice, "p", "hi")
	if err != nil || c.Username != models.PlaceholderCommentAuthor {
		t.Fatalf("placeholder author: comment=%+v err=%v", c, err)
	}

	named := e.feed(config.LikePolicyObserved, config.CommentAuthorProfile)
	if c, _ := named.AddComment(ctx, alice, "p", "hello"); c.Username != "qiao" {
		t.Fatalf("expected profile username, got %q", c.Username)
	}
	if c, _ := named.AddComment(ctx, bob, "p", "yo"); c.Username != models.PlaceholderCommentAuthor {
		t.Fatalf("expected placeholder for user without profile, got %q", c.Username)
	}

	if _, err := named.AddComment(ctx, alice, "p", " "); !errors.Is(err, ErrEmptyComment) {
		t.Fatalf("expected ErrEmptyComment, got %v", err)
	}
	if _, err := named.AddComment(ctx, alice, "missing", "x"); !errors.Is(err, ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound, got %v", err)
	}

	post, _ := e.posts.Get(ctx, "p")
	if len(post.Comments) != 3 {
		t.Fatalf("expected 3 comments, got %+v", post.Comments)
	}
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	e := newTestEnv(t)
	svc := e.feed(config.LikePolicyObserved, config.CommentAuthorPlaceholder)
	upload := NewUploadService(e.posts, e.blobs, e.hub)

	ctx, cancel := context.WithCancel(context.Background())
	snapshots := make(chan int, 8)
	done := make(chan error, 1)
	go func() {
		done <- svc.Subscribe(ctx, func(posts []models.Post) error {
			snapshots <- len(posts)
			return nil
		})
	}()

	if n := <-snapshots; n != 0 {
		t.Fatalf("expected empty initial snapshot, got %d", n)
	}
	if _, err := upload.Upload(context.Background(), alice, testPNG(t), "live"); err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	select {
	case n := <-snapshots:
		if n != 1 {
			t.Fatalf("expected 1 post after upload, got %d", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("no snapshot after upload")
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if e.hub.Subscribers() != 0 {
		t.Fatalf("subscription leaked")
	}
}

func TestUpload(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUploadService(e.posts, e.blobs, e.hub)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, alice, testPNG(t), "  "); !errors.Is(err, ErrEmptyDescription) {
		t.Fatalf("expected ErrEmptyDescription, got %v", err)
	}
	if _, err := svc.Upload(ctx, alice, nil, "desc"); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if _, err := svc.Upload(ctx, alice, []byte("garbage"), "desc"); !errors.Is(err, ErrEncodeImage) {
		t.Fatalf("expected ErrEncodeImage, got %v", err)
	}

	post, err := svc.Upload(ctx, alice, testPNG(t), "desc")
	if err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	if !strings.HasPrefix(post.ImageURL, "http://media.test/media/images/") || !strings.HasSuffix(post.ImageURL, ".jpg") {
		t.Fatalf("unexpected image URL %q", post.ImageURL)
	}
	if post.Likes != 0 || post.Comments == nil || post.UserID != alice.UserID {
		t.Fatalf("unexpected post %+v", post)
	}

	keys, _ := e.blobs.List(ctx, storage.PostImagePrefix)
	if len(keys) != 1 {
		t.Fatalf("expected 1 stored image, got %v", keys)
	}
}

func TestUploadWithoutSessionLeavesOrphan(t *testing.T) {
	e := newTestEnv(t)
	svc := NewUploadService(e.posts, e.blobs, e.hub)
	audit := NewBlobAuditService(e.posts, e.profiles, e.blobs)
	ctx := context.Background()

	if _, err := svc.Upload(ctx, models.Session{}, testPNG(t), "desc"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	posts, _ := e.posts.List(ctx)
	if len(posts) != 0 {
		t.Fatalf("post written without session")
	}

	orphans, err := audit.Orphans(ctx)
	if err != nil {
		t.Fatalf("Orphans() failed: %v", err)
	}
	if len(orphans) != 1 || !strings.HasPrefix(orphans[0], storage.PostImagePrefix) {
		t.Fatalf("expected one orphaned post image, got %v", orphans)
	}

	if _, err := svc.Upload(ctx, alice, testPNG(t), "kept"); err != nil {
		t.Fatalf("Upload() failed: %v", err)
	}
	orphans, _ = audit.Orphans(ctx)
	if len(orphans) != 1 {
		t.Fatalf("referenced image reported as orphan: %v", orphans)
	}
}

func TestProfileService(t *testing.T) {
	e := newTestEnv(t)
	svc := NewProfileService(e.profiles, e.blobs)
	ctx := context.Background()

	if _, err := svc.Load(ctx, models.Session{}); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession, got %v", err)
	}
	empty, err := svc.Load(ctx, alice)
	if err != nil || empty.Username != "" || empty.ProfileImageURL != "" {
		t.Fatalf("expected empty profile, got %+v err=%v", empty, err)
	}

	withAvatar, err := svc.Save(ctx, alice, "qiao", "hi", testPNG(t))
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if !strings.Contains(withAvatar.ProfileImageURL, "/media/profile_images/") {
		t.Fatalf("unexpected avatar URL %q", withAvatar.ProfileImageURL)
	}

	kept, err := svc.Save(ctx, alice, "qz", "", nil)
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	if kept.ProfileImageURL != withAvatar.ProfileImageURL {
		t.Fatalf("avatar URL not carried over: %q", kept.ProfileImageURL)
	}

	if _, err := svc.Save(ctx, alice, "qz", "", testPNG(t)); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	keys, _ := e.blobs.List(ctx, storage.ProfileImagePrefix)
	if len(keys) != 2 {
		t.Fatalf("expected old and new avatar to be stored, got %v", keys)
	}

	loaded, _ := svc.Load(ctx, alice)
	if loaded.Username != "qz" || loaded.Bio != "" {
		t.Fatalf("unexpected profile %+v", loaded)
	}
}

func TestAuthService(t *testing.T) {
	e := newTestEnv(t)
	svc := NewAuthService(e.accounts, "secret", nil)
	ctx := context.Background()

	if _, err := svc.SignUp(ctx, "not-an-email", "secret1"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if _, err := svc.SignUp(ctx, "a@example.com", "12345"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("expected ErrWeakPassword, got %v", err)
	}

	signedUp, err := svc.SignUp(ctx, " A@Example.com", "123456")
	if err != nil {
		t.Fatalf("SignUp() failed: %v", err)
	}
	if _, err := svc.SignUp(ctx, "a@example.com", "other-pass"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	if _, err := svc.SignIn(ctx, "a@example.com", "wrong1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "123456"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	signedIn, err := svc.SignIn(ctx, "a@example.com", "123456")
	if err != nil {
		t.Fatalf("SignIn() failed: %v", err)
	}
	if signedIn.UserID != signedUp.UserID {
		t.Fatalf("sign-in user %s differs from sign-up user %s", signedIn.UserID, signedUp.UserID)
	}

	session, err := svc.ParseToken(signedIn.Token)
	if err != nil {
		t.Fatalf("ParseToken() failed: %v", err)
	}
	if session.UserID != signedUp.UserID || session.Email != "a@example.com" {
		t.Fatalf("unexpected session %+v", session)
	}

	other := NewAuthService(e.accounts, "different", nil)
	if _, err := other.ParseToken(signedIn.Token); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for foreign token, got %v", err)
	}
	if _, err := svc.ParseToken("garbage"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("expected ErrNoSession for garbage token, got %v", err)
	}
}

func TestEncodeJPEG(t *testing.T) {
	out, err := EncodeJPEG(testPNG(t), PostImageQuality)
	if err != nil {
		t.Fatalf("EncodeJPEG() failed: %v", err)
	}
	if _, err := jpeg.Decode(bytes.NewReader(out)); err != nil {
		t.Fatalf("output is not a JPEG: %v", err)
	}
	if _, err := EncodeJPEG([]byte{0x00, 0x01}, PostImageQuality); !errors.Is(err, ErrEncodeImage) {
		t.Fatalf("expected ErrEncodeImage, got %v", err)
	}
}
