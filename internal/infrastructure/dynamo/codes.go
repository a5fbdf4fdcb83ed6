package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/donkcry/B--Blog/internal/domain"
)

// CodeRepo is the verification-code store.
// PK: destination (email), SK: purpose, one slot per key. Put is a plain
// upsert, so issuing a new code atomically supersedes the previous one.
type CodeRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewCodeRepo(client *dynamodb.Client, tableName string) *CodeRepo {
	return &CodeRepo{client: client, tableName: tableName}
}

func (r *CodeRepo) Put(ctx context.Context, v *domain.VerificationCode) error {
	item, err := attributevalue.MarshalMap(v)
	if err != nil {
		return fmt.Errorf("marshal verification code: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put verification code: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

// GetLatest returns the single live record for (destination, purpose),
// or ErrNotFound when no code has been issued (or it was already consumed).
func (r *CodeRepo) GetLatest(ctx context.Context, destination string, purpose domain.Purpose) (*domain.VerificationCode, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            compositeKey("destination", destination, "purpose", string(purpose)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get verification code: %w", domain.ErrStorageUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("verification code not found: %w", domain.ErrNotFound)
	}
	var v domain.VerificationCode
	if err := attributevalue.UnmarshalMap(out.Item, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

// Delete removes the record for the key. Idempotent: deleting a missing key
// is not an error.
func (r *CodeRepo) Delete(ctx context.Context, destination string, purpose domain.Purpose) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       compositeKey("destination", destination, "purpose", string(purpose)),
	})
	if err != nil {
		return fmt.Errorf("delete verification code: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

// ConsumeIfMatch deletes the record only if the stored code still equals
// code. The condition makes consumption single-use and linearizable per key:
// a concurrent re-issue or a concurrent successful verify changes or removes
// the stored value and this call fails with ErrCodeMismatch instead of
// consuming the wrong record.
func (r *CodeRepo) ConsumeIfMatch(ctx context.Context, destination string, purpose domain.Purpose, code string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 compositeKey("destination", destination, "purpose", string(purpose)),
		// "code" is a DynamoDB reserved word.
		ConditionExpression:      aws.String("#c = :c"),
		ExpressionAttributeNames: map[string]string{"#c": "code"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":c": &types.AttributeValueMemberS{Value: code},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return domain.ErrCodeMismatch
		}
		return fmt.Errorf("consume verification code: %w", domain.ErrStorageUnavailable)
	}
	return nil
}
