package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/donkcry/B--Blog/internal/domain"
)

// CommentRepo provides typed DynamoDB operations for the blog comments table.
type CommentRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCommentRepo(client *dynamodb.Client, tableName string) *CommentRepo {
	return &CommentRepo{client: client, tableName: tableName}
}

func (r *CommentRepo) Put(ctx context.Context, c *domain.BlogComment) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal comment: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put comment: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

func (r *CommentRepo) Get(ctx context.Context, commentID string) (*domain.BlogComment, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("comment_id", commentID),
	})
	if err != nil {
		return nil, fmt.Errorf("get comment: %w", domain.ErrStorageUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("comment not found: %w", domain.ErrNotFound)
	}
	var c domain.BlogComment
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) ListByBlog(ctx context.Context, blogID string) ([]domain.BlogComment, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("blog_id-index"),
		KeyConditionExpression: aws.String("blog_id = :b"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":b": &types.AttributeValueMemberS{Value: blogID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", domain.ErrStorageUnavailable)
	}
	var comments []domain.BlogComment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// QueryByAuthor returns a page of the author's comments, optionally filtered
// by a substring match on the content.
func (r *CommentRepo) QueryByAuthor(ctx context.Context, authorID, query string, limit int32, cursor string) ([]domain.BlogComment, string, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("author_id-index"),
		KeyConditionExpression: aws.String("author_id = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":a": &types.AttributeValueMemberS{Value: authorID},
		},
		Limit: aws.Int32(limit),
	}
	if query != "" {
		input.FilterExpression = aws.String("contains(content, :q)")
		input.ExpressionAttributeValues[":q"] = &types.AttributeValueMemberS{Value: query}
	}
	if cursor != "" {
		commentID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"author_id":  &types.AttributeValueMemberS{Value: authorID},
			"comment_id": &types.AttributeValueMemberS{Value: commentID},
		}
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("query comments: %w", domain.ErrStorageUnavailable)
	}
	var comments []domain.BlogComment
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &comments); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["comment_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return comments, nextCursor, nil
}
