package blog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/donkcry/B--Blog/internal/pkg/id"
	"github.com/donkcry/B--Blog/internal/pkg/validate"
)

// Service covers the public blog surface: posts, categories, comments and
// substring search with cursor pagination.
type Service interface {
	Create(ctx context.Context, authorID string, req domain.CreateBlogRequest) (*domain.Blog, error)
	Get(ctx context.Context, blogID string) (*domain.Blog, []domain.BlogComment, error)
	List(ctx context.Context, query string, limit int, cursor string) ([]domain.Blog, string, error)
	Comment(ctx context.Context, blogID, authorID string, req domain.CreateCommentRequest) (*domain.BlogComment, error)
	Categories(ctx context.Context) ([]domain.BlogCategory, error)
}

type blogStore interface {
	Put(ctx context.Context, b *domain.Blog) error
	Get(ctx context.Context, blogID string) (*domain.Blog, error)
	ScanPage(ctx context.Context, query string, limit int32, cursor string) ([]domain.Blog, string, error)
}

type categoryStore interface {
	GetOrCreate(ctx context.Context, name string) (*domain.BlogCategory, error)
	List(ctx context.Context) ([]domain.BlogCategory, error)
}

type commentStore interface {
	Put(ctx context.Context, c *domain.BlogComment) error
	ListByBlog(ctx context.Context, blogID string) ([]domain.BlogComment, error)
}

type service struct {
	blogs      blogStore
	categories categoryStore
	comments   commentStore
}

func NewService(blogs blogStore, categories categoryStore, comments commentStore) Service {
	return &service{blogs: blogs, categories: categories, comments: comments}
}

func (s *service) Create(ctx context.Context, authorID string, req domain.CreateBlogRequest) (*domain.Blog, error) {
	if authorID == "" {
		return nil, fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	}
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	// Categories are referenced by name and created on first use.
	cat, err := s.categories.GetOrCreate(ctx, req.CategoryName)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	b := &domain.Blog{
		BlogID:     id.New(),
		Title:      strings.TrimSpace(req.Title),
		Content:    req.Content,
		CategoryID: cat.NameKey,
		AuthorID:   authorID,
		CreatedAt:  now,
		EditedAt:   now,
	}
	if err := s.blogs.Put(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *service) Get(ctx context.Context, blogID string) (*domain.Blog, []domain.BlogComment, error) {
	b, err := s.blogs.Get(ctx, blogID)
	if err != nil {
		return nil, nil, err
	}
	comments, err := s.comments.ListByBlog(ctx, blogID)
	if err != nil {
		return nil, nil, err
	}
	return b, comments, nil
}

func (s *service) List(ctx context.Context, query string, limit int, cursor string) ([]domain.Blog, string, error) {
	if limit < 1 {
		limit = 6
	}
	return s.blogs.ScanPage(ctx, strings.TrimSpace(query), int32(limit), cursor)
}

func (s *service) Comment(ctx context.Context, blogID, authorID string, req domain.CreateCommentRequest) (*domain.BlogComment, error) {
	if authorID == "" {
		return nil, fmt.Errorf("authentication required: %w", domain.ErrUnauthorized)
	}
	if err := validate.Struct(&req); err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrBadRequest)
	}
	// Commenting on a missing blog is a 404, not a dangling comment.
	if _, err := s.blogs.Get(ctx, blogID); err != nil {
		return nil, err
	}
	c := &domain.BlogComment{
		CommentID: id.New(),
		BlogID:    blogID,
		AuthorID:  authorID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.comments.Put(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *service) Categories(ctx context.Context) ([]domain.BlogCategory, error) {
	return s.categories.List(ctx)
}
