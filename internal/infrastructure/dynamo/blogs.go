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

// BlogRepo provides typed DynamoDB operations for the blogs table.
type BlogRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBlogRepo(client *dynamodb.Client, tableName string) *BlogRepo {
	return &BlogRepo{client: client, tableName: tableName}
}

func (r *BlogRepo) Put(ctx context.Context, b *domain.Blog) error {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal blog: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put blog: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

func (r *BlogRepo) Get(ctx context.Context, blogID string) (*domain.Blog, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("blog_id", blogID),
	})
	if err != nil {
		return nil, fmt.Errorf("get blog: %w", domain.ErrStorageUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("blog not found: %w", domain.ErrNotFound)
	}
	var b domain.Blog
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ScanPage returns a page of blogs, optionally filtered by a substring match
// on title or content. cursor is a base64-encoded blog_id used as
// ExclusiveStartKey; the returned next cursor is empty when no pages remain.
func (r *BlogRepo) ScanPage(ctx context.Context, query string, limit int32, cursor string) ([]domain.Blog, string, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
		Limit:     aws.Int32(limit),
	}
	if query != "" {
		input.FilterExpression = aws.String("contains(title, :q) OR contains(content, :q)")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":q": &types.AttributeValueMemberS{Value: query},
		}
	}
	if cursor != "" {
		blogID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = strKey("blog_id", blogID)
	}
	out, err := r.client.Scan(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("scan blogs: %w", domain.ErrStorageUnavailable)
	}
	var blogs []domain.Blog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &blogs); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["blog_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return blogs, nextCursor, nil
}

// QueryByAuthor returns a page of the author's blogs via the author_id-index,
// optionally filtered by a substring match on title or content.
func (r *BlogRepo) QueryByAuthor(ctx context.Context, authorID, query string, limit int32, cursor string) ([]domain.Blog, string, error) {
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
		input.FilterExpression = aws.String("contains(title, :q) OR contains(content, :q)")
		input.ExpressionAttributeValues[":q"] = &types.AttributeValueMemberS{Value: query}
	}
	if cursor != "" {
		blogID, err := decodeCursor(cursor)
		if err != nil {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		input.ExclusiveStartKey = map[string]types.AttributeValue{
			"author_id": &types.AttributeValueMemberS{Value: authorID},
			"blog_id":   &types.AttributeValueMemberS{Value: blogID},
		}
	}
	out, err := r.client.Query(ctx, input)
	if err != nil {
		return nil, "", fmt.Errorf("query blogs: %w", domain.ErrStorageUnavailable)
	}
	var blogs []domain.Blog
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &blogs); err != nil {
		return nil, "", err
	}
	nextCursor := ""
	if v, ok := out.LastEvaluatedKey["blog_id"].(*types.AttributeValueMemberS); ok {
		nextCursor = encodeCursor(v.Value)
	}
	return blogs, nextCursor, nil
}
