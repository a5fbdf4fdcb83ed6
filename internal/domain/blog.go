package domain

import "time"

type Blog struct {
	BlogID     string    `json:"id" dynamodbav:"blog_id"`
	Title      string    `json:"title" dynamodbav:"title"`
	Content    string    `json:"content" dynamodbav:"content"`
	CategoryID string    `json:"category_id" dynamodbav:"category_id"`
	AuthorID   string    `json:"author_id" dynamodbav:"author_id"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
	EditedAt   time.Time `json:"edited" dynamodbav:"edited_at"`
}

// BlogCategory is keyed by the lowercased name so get-or-create can match
// case-insensitively with a single conditional put.
type BlogCategory struct {
	NameKey   string    `json:"-" dynamodbav:"name_key"`
	Name      string    `json:"name" dynamodbav:"name"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type BlogComment struct {
	CommentID string    `json:"id" dynamodbav:"comment_id"`
	BlogID    string    `json:"blog_id" dynamodbav:"blog_id"`
	AuthorID  string    `json:"author_id" dynamodbav:"author_id"`
	Content   string    `json:"content" dynamodbav:"content"`
	CreatedAt time.Time `json:"created" dynamodbav:"created_at"`
}

type CreateBlogRequest struct {
	Title        string `json:"title" validate:"required,min=1,max=200"`
	Content      string `json:"content" validate:"required,min=1"`
	CategoryName string `json:"category_name" validate:"required,min=1,max=200"`
}

type CreateCommentRequest struct {
	Content string `json:"content" validate:"required,min=1"`
}
