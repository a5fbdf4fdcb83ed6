package blog

import (
	"context"
	"errors"
	"testing"

	"github.com/donkcry/B--Blog/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockBlogStore struct{ mock.Mock }

func (m *mockBlogStore) Put(ctx context.Context, b *domain.Blog) error {
	return m.Called(ctx, b).Error(0)
}
func (m *mockBlogStore) Get(ctx context.Context, blogID string) (*domain.Blog, error) {
	args := m.Called(ctx, blogID)
	if b, _ := args.Get(0).(*domain.Blog); b != nil {
		return b, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockBlogStore) ScanPage(ctx context.Context, query string, limit int32, cursor string) ([]domain.Blog, string, error) {
	args := m.Called(ctx, query, limit, cursor)
	blogs, _ := args.Get(0).([]domain.Blog)
	return blogs, args.String(1), args.Error(2)
}

type mockCategoryStore struct{ mock.Mock }

func (m *mockCategoryStore) GetOrCreate(ctx context.Context, name string) (*domain.BlogCategory, error) {
	args := m.Called(ctx, name)
	if c, _ := args.Get(0).(*domain.BlogCategory); c != nil {
		return c, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCategoryStore) List(ctx context.Context) ([]domain.BlogCategory, error) {
	args := m.Called(ctx)
	cats, _ := args.Get(0).([]domain.BlogCategory)
	return cats, args.Error(1)
}

type mockCommentStore struct{ mock.Mock }

func (m *mockCommentStore) Put(ctx context.Context, c *domain.BlogComment) error {
	return m.Called(ctx, c).Error(0)
}
func (m *mockCommentStore) ListByBlog(ctx context.Context, blogID string) ([]domain.BlogComment, error) {
	args := m.Called(ctx, blogID)
	comments, _ := args.Get(0).([]domain.BlogComment)
	return comments, args.Error(1)
}

// --- Create ---

func TestCreate_ResolvesCategoryByName(t *testing.T) {
	bs := &mockBlogStore{}
	cs := &mockCategoryStore{}
	cs.On("GetOrCreate", mock.Anything, "Travel").Return(&domain.BlogCategory{NameKey: "travel", Name: "Travel"}, nil)
	bs.On("Put", mock.Anything, mock.MatchedBy(func(b *domain.Blog) bool {
		return b.CategoryID == "travel" && b.AuthorID == "acc1" && b.Title == "Kyoto"
	})).Return(nil)

	svc := NewService(bs, cs, &mockCommentStore{})
	b, err := svc.Create(context.Background(), "acc1", domain.CreateBlogRequest{
		Title: "  Kyoto  ", Content: "notes", CategoryName: "Travel",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, b.BlogID)
	assert.Equal(t, b.CreatedAt, b.EditedAt)
	bs.AssertExpectations(t)
	cs.AssertExpectations(t)
}

func TestCreate_RequiresAuthor(t *testing.T) {
	svc := NewService(&mockBlogStore{}, &mockCategoryStore{}, &mockCommentStore{})
	_, err := svc.Create(context.Background(), "", domain.CreateBlogRequest{
		Title: "x", Content: "y", CategoryName: "z",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestCreate_EmptyTitle_IsBadRequest(t *testing.T) {
	cs := &mockCategoryStore{}
	svc := NewService(&mockBlogStore{}, cs, &mockCommentStore{})
	_, err := svc.Create(context.Background(), "acc1", domain.CreateBlogRequest{
		Content: "y", CategoryName: "z",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
	cs.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
}

// --- Get / List ---

func TestGet_ReturnsBlogWithComments(t *testing.T) {
	bs := &mockBlogStore{}
	cms := &mockCommentStore{}
	bs.On("Get", mock.Anything, "b1").Return(&domain.Blog{BlogID: "b1"}, nil)
	cms.On("ListByBlog", mock.Anything, "b1").Return([]domain.BlogComment{{CommentID: "c1"}}, nil)

	svc := NewService(bs, &mockCategoryStore{}, cms)
	b, comments, err := svc.Get(context.Background(), "b1")

	require.NoError(t, err)
	assert.Equal(t, "b1", b.BlogID)
	require.Len(t, comments, 1)
}

func TestList_DefaultsLimit(t *testing.T) {
	bs := &mockBlogStore{}
	bs.On("ScanPage", mock.Anything, "", int32(6), "").Return([]domain.Blog{}, "", nil)

	svc := NewService(bs, &mockCategoryStore{}, &mockCommentStore{})
	_, _, err := svc.List(context.Background(), "", 0, "")

	require.NoError(t, err)
	bs.AssertExpectations(t)
}

// --- Comment ---

func TestComment_MissingBlog_Is404(t *testing.T) {
	bs := &mockBlogStore{}
	cms := &mockCommentStore{}
	bs.On("Get", mock.Anything, "missing").Return(nil, domain.ErrNotFound)

	svc := NewService(bs, &mockCategoryStore{}, cms)
	_, err := svc.Comment(context.Background(), "missing", "acc1", domain.CreateCommentRequest{Content: "hi"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	cms.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestComment_HappyPath(t *testing.T) {
	bs := &mockBlogStore{}
	cms := &mockCommentStore{}
	bs.On("Get", mock.Anything, "b1").Return(&domain.Blog{BlogID: "b1"}, nil)
	cms.On("Put", mock.Anything, mock.MatchedBy(func(c *domain.BlogComment) bool {
		return c.BlogID == "b1" && c.AuthorID == "acc1" && c.Content == "hi"
	})).Return(nil)

	svc := NewService(bs, &mockCategoryStore{}, cms)
	c, err := svc.Comment(context.Background(), "b1", "acc1", domain.CreateCommentRequest{Content: "hi"})

	require.NoError(t, err)
	assert.NotEmpty(t, c.CommentID)
	cms.AssertExpectations(t)
}
