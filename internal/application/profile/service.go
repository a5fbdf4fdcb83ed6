package profile

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/donkcry/B--Blog/internal/pkg/id"
)

// Tab selects which of the profile page's lists is being browsed.
const (
	TabBlogs    = "blogs"
	TabComments = "comments"
)

// Page is one page of either tab, with the cursor for the next one.
type Page struct {
	Tab        string               `json:"tab"`
	Blogs      []domain.Blog        `json:"blogs,omitempty"`
	Comments   []domain.BlogComment `json:"comments,omitempty"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// Service backs the account-management area: the owner's blog/comment lists
// with search and pagination, and avatar upload.
type Service interface {
	Browse(ctx context.Context, accountID, tab, query string, limit int, cursor string) (*Page, error)
	UploadAvatar(ctx context.Context, accountID, filename string, size int64, r io.Reader) (*domain.File, string, error)
	AvatarURL(ctx context.Context, accountID string) (string, error)
}

type blogStore interface {
	QueryByAuthor(ctx context.Context, authorID, query string, limit int32, cursor string) ([]domain.Blog, string, error)
}

type commentStore interface {
	QueryByAuthor(ctx context.Context, authorID, query string, limit int32, cursor string) ([]domain.BlogComment, string, error)
}

type fileStore interface {
	Put(ctx context.Context, f *domain.File) error
	Get(ctx context.Context, fileID string) (*domain.File, error)
}

type accountStore interface {
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

type objectStore interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
}

type service struct {
	blogs    blogStore
	comments commentStore
	files    fileStore
	accounts accountStore
	objects  objectStore
}

func NewService(blogs blogStore, comments commentStore, files fileStore, accounts accountStore, objects objectStore) Service {
	return &service{blogs: blogs, comments: comments, files: files, accounts: accounts, objects: objects}
}

func (s *service) Browse(ctx context.Context, accountID, tab, query string, limit int, cursor string) (*Page, error) {
	if accountID == "" {
		return nil, fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	}
	if limit < 1 {
		limit = 8
	}
	query = strings.TrimSpace(query)
	switch tab {
	case TabComments:
		comments, next, err := s.comments.QueryByAuthor(ctx, accountID, query, int32(limit), cursor)
		if err != nil {
			return nil, err
		}
		return &Page{Tab: TabComments, Comments: comments, NextCursor: next}, nil
	case TabBlogs, "":
		blogs, next, err := s.blogs.QueryByAuthor(ctx, accountID, query, int32(limit), cursor)
		if err != nil {
			return nil, err
		}
		return &Page{Tab: TabBlogs, Blogs: blogs, NextCursor: next}, nil
	default:
		return nil, fmt.Errorf("unknown tab %q: %w", tab, domain.ErrBadRequest)
	}
}

// detectImageType maps an avatar filename to its MIME type, rejecting
// anything that is not an image.
func detectImageType(filename string) (string, bool) {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg", true
	case strings.HasSuffix(lower, ".png"):
		return "image/png", true
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif", true
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp", true
	}
	return "", false
}

func (s *service) UploadAvatar(ctx context.Context, accountID, filename string, size int64, r io.Reader) (*domain.File, string, error) {
	if accountID == "" {
		return nil, "", fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	}
	contentType, ok := detectImageType(filename)
	if !ok {
		return nil, "", fmt.Errorf("avatar must be a jpg, png, gif or webp image: %w", domain.ErrBadRequest)
	}
	fileID := id.New()
	key := fmt.Sprintf("avatars/%s/%s-%s", accountID, fileID, filename)
	object, err := s.objects.Upload(ctx, key, r, contentType)
	if err != nil {
		return nil, "", fmt.Errorf("upload avatar: %w", domain.ErrStorageUnavailable)
	}
	now := time.Now().UTC()
	f := &domain.File{
		FileID:    fileID,
		Object:    key,
		Size:      size,
		Type:      contentType,
		Name:      filename,
		OwnerID:   accountID,
		Enable:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.files.Put(ctx, f); err != nil {
		return nil, "", err
	}
	if err := s.accounts.Update(ctx, accountID, map[string]interface{}{"avatar_file_id": fileID}); err != nil {
		return nil, "", err
	}
	url, err := s.objects.PresignedURL(ctx, key, 15*time.Minute)
	if err != nil {
		return f, object, nil
	}
	return f, url, nil
}

func (s *service) AvatarURL(ctx context.Context, accountID string) (string, error) {
	a, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return "", err
	}
	if a.AvatarFileID == "" {
		return "", fmt.Errorf("no avatar set: %w", domain.ErrNotFound)
	}
	f, err := s.files.Get(ctx, a.AvatarFileID)
	if err != nil {
		return "", err
	}
	return s.objects.PresignedURL(ctx, f.Object, 15*time.Minute)
}
