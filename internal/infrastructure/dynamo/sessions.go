package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/donkcry/B--Blog/internal/domain"
)

// SessionRepo provides typed DynamoDB operations for the sessions table.
type SessionRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewSessionRepo(client *dynamodb.Client, tableName string) *SessionRepo {
	return &SessionRepo{client: client, tableName: tableName}
}

func (r *SessionRepo) Put(ctx context.Context, s *domain.Session) error {
	item, err := attributevalue.MarshalMap(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put session: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("session_id", sessionID),
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", domain.ErrStorageUnavailable)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Item, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) GetByRefreshToken(ctx context.Context, token string) (*domain.Session, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("refresh_token-index"),
		KeyConditionExpression:    aws.String("refresh_token = :t"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":t": &types.AttributeValueMemberS{Value: token}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", domain.ErrStorageUnavailable)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("session not found: %w", domain.ErrNotFound)
	}
	var s domain.Session
	if err := attributevalue.UnmarshalMap(out.Items[0], &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RotateRefreshToken swaps the session's refresh token only while the session
// is still enabled, so a disabled session cannot be revived by a refresh.
func (r *SessionRepo) RotateRefreshToken(ctx context.Context, sessionID, newToken string, newExpiry int64) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("session_id", sessionID),
		UpdateExpression: aws.String("SET refresh_token = :t, refresh_expires_at = :e, updated_at = :u"),
		// "enable" is a DynamoDB reserved word.
		ConditionExpression:      aws.String("#en = :true"),
		ExpressionAttributeNames: map[string]string{"#en": "enable"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":t":    &types.AttributeValueMemberS{Value: newToken},
			":e":    &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", newExpiry)},
			":u":    &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339)},
			":true": &types.AttributeValueMemberBOOL{Value: true},
		},
	})
	if err != nil {
		// Only a failed condition means the session was disabled under us;
		// anything else is the store being unavailable.
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return fmt.Errorf("session disabled: %w", domain.ErrUnauthorized)
		}
		return fmt.Errorf("rotate refresh token: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

func (r *SessionRepo) Disable(ctx context.Context, sessionID string) error {
	expr, names, values, err := buildUpdateExpr(map[string]interface{}{
		"enable":     false,
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("session_id", sessionID),
		UpdateExpression:          aws.String(expr),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("disable session: %w", domain.ErrStorageUnavailable)
	}
	return nil
}

// DisableAllForAccount disables every session belonging to the account.
// Called after password changes and account deletion.
func (r *SessionRepo) DisableAllForAccount(ctx context.Context, accountID string) error {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String("account_id-index"),
		KeyConditionExpression:    aws.String("account_id = :a"),
		ExpressionAttributeValues: map[string]types.AttributeValue{":a": &types.AttributeValueMemberS{Value: accountID}},
	})
	if err != nil {
		return fmt.Errorf("query sessions: %w", domain.ErrStorageUnavailable)
	}
	var sessions []domain.Session
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &sessions); err != nil {
		return err
	}
	for i := range sessions {
		if !sessions[i].Enable {
			continue
		}
		if err := r.Disable(ctx, sessions[i].SessionID); err != nil {
			return err
		}
	}
	return nil
}
