package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/donkcry/B--Blog/internal/domain"
)

// CategoryRepo provides typed DynamoDB operations for the blog categories table.
// Categories are keyed by the lowercased name so lookups are case-insensitive.
type CategoryRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCategoryRepo(client *dynamodb.Client, tableName string) *CategoryRepo {
	return &CategoryRepo{client: client, tableName: tableName}
}

// GetOrCreate returns the category with the given name, creating it when it
// does not exist. The conditional put makes concurrent creates of the same
// name converge on a single item instead of clobbering each other.
func (r *CategoryRepo) GetOrCreate(ctx context.Context, name string) (*domain.BlogCategory, error) {
	c := &domain.BlogCategory{
		NameKey:   strings.ToLower(strings.TrimSpace(name)),
		Name:      strings.TrimSpace(name),
		CreatedAt: time.Now().UTC(),
	}
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return nil, fmt.Errorf("marshal category: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(name_key)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if !errors.As(err, &ccf) {
			return nil, fmt.Errorf("put category: %w", domain.ErrStorageUnavailable)
		}
		// Already exists. Return the stored item, which keeps the casing of
		// whoever created it first.
		return r.Get(ctx, c.NameKey)
	}
	return c, nil
}

func (r *CategoryRepo) Get(ctx context.Context, nameKey string) (*domain.BlogCategory, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("name_key", nameKey),
	})
	if err != nil {
		return nil, fmt.Errorf("get category: %w", domain.ErrStorageUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("category not found: %w", domain.ErrNotFound)
	}
	var c domain.BlogCategory
	if err := attributevalue.UnmarshalMap(out.Item, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]domain.BlogCategory, error) {
	out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
		TableName: aws.String(r.tableName),
	})
	if err != nil {
		return nil, fmt.Errorf("scan categories: %w", domain.ErrStorageUnavailable)
	}
	var cats []domain.BlogCategory
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &cats); err != nil {
		return nil, err
	}
	return cats, nil
}
